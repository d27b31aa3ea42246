// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"qualityforce/internal/domain"
	"qualityforce/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAgent is a minimal pipeline implementation with injectable behavior.
type stubAgent struct {
	agentType domain.AgentType
	execErr   error
	blocking  bool
}

func (a *stubAgent) Metadata() domain.AgentMetadata {
	return domain.AgentMetadata{
		AgentType: a.agentType,
		Name:      "Stub Agent",
		Version:   "0.0.1",
	}
}

func (a *stubAgent) ValidateInputs(ctx context.Context, input *domain.AgentInput) (bool, error) {
	return true, nil
}

func (a *stubAgent) GenerateScripts(ctx context.Context, input *domain.AgentInput) ([]domain.TestScript, error) {
	return []domain.TestScript{{ScriptID: "s1", TargetName: "stub"}}, nil
}

func (a *stubAgent) GenerateData(ctx context.Context, input *domain.AgentInput) (domain.TestDataBundle, error) {
	return domain.TestDataBundle{"cases": {{"k": "v"}}}, nil
}

func (a *stubAgent) Execute(ctx context.Context, scripts []domain.TestScript, data domain.TestDataBundle, input *domain.AgentInput) ([]domain.TestCase, error) {
	if a.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.execErr != nil {
		return nil, a.execErr
	}
	return []domain.TestCase{
		{ID: "t1", Name: "stub_case", TestType: "stub", Outcome: domain.TestOutcomePassed},
	}, nil
}

func (a *stubAgent) CollectEvidence(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.Evidence, error) {
	return nil, nil
}

func (a *stubAgent) AnalyzeFailures(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.RootCauseAnalysis, error) {
	return nil, nil
}

func (a *stubAgent) Recommend(ctx context.Context, cases []domain.TestCase, analyses []domain.RootCauseAnalysis, input *domain.AgentInput) ([]domain.Recommendation, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, opts Options, stubs ...*stubAgent) *Orchestrator {
	t.Helper()
	reg := registry.New(testLogger())
	for _, stub := range stubs {
		stub := stub
		require.NoError(t, reg.Register(stub.agentType, func() domain.Agent { return stub }))
	}
	orch := New(reg, opts, testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})
	return orch
}

func TestStartExecutionUnknownAgentType(t *testing.T) {
	orch := newTestOrchestrator(t, Options{})

	_, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownAgentType)
}

func TestStartExecutionRunsToCompletion(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, &domain.AgentInput{SourceCode: "func main() {}"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, 1, result.TotalTests)
	assert.Equal(t, 1, result.PassedTests)
	assert.False(t, result.EndTime.IsZero())
	assert.NoError(t, result.Validate())

	status, ok := orch.Status(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, status)
}

func TestStartExecutionReturnsUniqueIDs(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting})

	id1, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	id2, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestStartExecutionStageFaultYieldsFailedResult(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, execErr: errors.New("boom")})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "boom")
	assert.Zero(t, result.TotalTests)
}

func TestConcurrencyCeilingRejectsExcessStarts(t *testing.T) {
	orch := newTestOrchestrator(t, Options{MaxConcurrent: 1},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)

	_, err = orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTooManyExecutions)

	require.True(t, orch.Cancel(context.Background(), id))

	// Capacity frees up once the first run terminated.
	id2, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	orch.Cancel(context.Background(), id2)
}

func TestCancelRunningExecution(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)

	status, ok := orch.Status(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusRunning, status)

	assert.True(t, orch.Cancel(context.Background(), id))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCancelled, result.Status)
	assert.False(t, result.EndTime.IsZero())

	// Second cancel sees a terminal execution.
	assert.False(t, orch.Cancel(context.Background(), id))
}

func TestCancelUnknownExecution(t *testing.T) {
	orch := newTestOrchestrator(t, Options{})
	assert.False(t, orch.Cancel(context.Background(), "no-such-id"))
}

func TestCancelCompletedExecutionKeepsTerminalStatus(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))

	assert.False(t, orch.Cancel(context.Background(), id))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
}

func TestAwaitCompletionTimeoutCancelsExecution(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)

	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 50*time.Millisecond))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCancelled, result.Status)
}

func TestAwaitCompletionUnknownExecution(t *testing.T) {
	orch := newTestOrchestrator(t, Options{})
	err := orch.AwaitCompletion(context.Background(), "no-such-id", 0)
	assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
}

func TestExecutionTimeoutCancelsRun(t *testing.T) {
	orch := newTestOrchestrator(t, Options{ExecutionTimeout: 50 * time.Millisecond},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))

	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCancelled, result.Status)
}

func TestStartBatchUnknownAgentTypeFailsWholeBatch(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting})

	ids, err := orch.StartBatch(context.Background(), &domain.BatchRequest{
		Executions: []domain.ExecutionRequest{
			{AgentType: domain.AgentTypeUnitTesting},
			{AgentType: domain.AgentTypeSecurityTesting},
		},
		Parallel: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownAgentType)
	assert.Empty(t, ids)
	assert.Zero(t, orch.ActiveCount())
}

func TestStartBatchParallelLaunchesAllItems(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting},
		&stubAgent{agentType: domain.AgentTypeFunctionalTesting},
		&stubAgent{agentType: domain.AgentTypeIntegrationTesting})

	ids, err := orch.StartBatch(context.Background(), &domain.BatchRequest{
		Executions: []domain.ExecutionRequest{
			{AgentType: domain.AgentTypeUnitTesting},
			{AgentType: domain.AgentTypeFunctionalTesting},
			{AgentType: domain.AgentTypeIntegrationTesting},
		},
		Parallel: true,
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	for _, id := range ids {
		require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))
		result, ok := orch.Result(id)
		require.True(t, ok)
		assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
	}
}

func TestStartBatchSequentialStopsAfterFailure(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting},
		&stubAgent{agentType: domain.AgentTypeFunctionalTesting, execErr: errors.New("boom")},
		&stubAgent{agentType: domain.AgentTypeIntegrationTesting})

	ids, err := orch.StartBatch(context.Background(), &domain.BatchRequest{
		Executions: []domain.ExecutionRequest{
			{AgentType: domain.AgentTypeUnitTesting},
			{AgentType: domain.AgentTypeFunctionalTesting},
			{AgentType: domain.AgentTypeIntegrationTesting},
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Contains(t, ids, domain.AgentTypeUnitTesting)
	assert.Contains(t, ids, domain.AgentTypeFunctionalTesting)
	assert.NotContains(t, ids, domain.AgentTypeIntegrationTesting)
}

func TestStartBatchSequentialContinueOnFailure(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting},
		&stubAgent{agentType: domain.AgentTypeFunctionalTesting, execErr: errors.New("boom")},
		&stubAgent{agentType: domain.AgentTypeIntegrationTesting})

	ids, err := orch.StartBatch(context.Background(), &domain.BatchRequest{
		Executions: []domain.ExecutionRequest{
			{AgentType: domain.AgentTypeUnitTesting},
			{AgentType: domain.AgentTypeFunctionalTesting},
			{AgentType: domain.AgentTypeIntegrationTesting},
		},
		ContinueOnFailure: true,
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	result, ok := orch.Result(ids[domain.AgentTypeIntegrationTesting])
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
}

func TestActiveCountTracksRunningExecutions(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	assert.Zero(t, orch.ActiveCount())

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, orch.ActiveCount())

	orch.Cancel(context.Background(), id)
	assert.Zero(t, orch.ActiveCount())
}

func TestShutdownCancelsRunningExecutions(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting, blocking: true})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, orch.Shutdown(ctx))

	assert.Zero(t, orch.ActiveCount())
	result, ok := orch.Result(id)
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCancelled, result.Status)
}

func TestMergeConfigDoesNotMutateCaller(t *testing.T) {
	input := &domain.AgentInput{
		SourceCode: "code",
		Config:     map[string]any{"a": 1},
	}
	merged := mergeConfig(input, map[string]any{"b": 2})

	assert.Equal(t, "code", merged.SourceCode)
	assert.Equal(t, 1, merged.Config["a"])
	assert.Equal(t, 2, merged.Config["b"])
	assert.NotContains(t, input.Config, "b")
}

func TestResultsSnapshot(t *testing.T) {
	orch := newTestOrchestrator(t, Options{},
		&stubAgent{agentType: domain.AgentTypeUnitTesting})

	id, err := orch.StartExecution(context.Background(), domain.AgentTypeUnitTesting, nil, nil)
	require.NoError(t, err)
	require.NoError(t, orch.AwaitCompletion(context.Background(), id, 0))

	results := orch.Results()
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ExecutionID)
}
