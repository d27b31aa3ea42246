// internal/orchestrator/driver_test.go
package orchestrator

import (
	"context"
	"errors"
	"testing"

	"qualityforce/internal/domain"

	"github.com/stretchr/testify/assert"
)

// recordingAgent records the stage order the driver invokes and lets each
// stage's behavior be overridden.
type recordingAgent struct {
	stages []string

	validateOK  bool
	validateErr error
	scriptsErr  error
	dataErr     error
	cases       []domain.TestCase
	casesErr    error
	evidenceErr error
	panicStage  string
}

func (a *recordingAgent) visit(stage string) {
	a.stages = append(a.stages, stage)
	if a.panicStage == stage {
		panic("stage exploded")
	}
}

func (a *recordingAgent) Metadata() domain.AgentMetadata {
	return domain.AgentMetadata{AgentType: domain.AgentTypeUnitTesting, Name: "Recording Agent"}
}

func (a *recordingAgent) ValidateInputs(ctx context.Context, input *domain.AgentInput) (bool, error) {
	a.visit("validate")
	return a.validateOK, a.validateErr
}

func (a *recordingAgent) GenerateScripts(ctx context.Context, input *domain.AgentInput) ([]domain.TestScript, error) {
	a.visit("scripts")
	return []domain.TestScript{{ScriptID: "s1"}}, a.scriptsErr
}

func (a *recordingAgent) GenerateData(ctx context.Context, input *domain.AgentInput) (domain.TestDataBundle, error) {
	a.visit("data")
	return domain.TestDataBundle{"d": {{"k": "v"}}}, a.dataErr
}

func (a *recordingAgent) Execute(ctx context.Context, scripts []domain.TestScript, data domain.TestDataBundle, input *domain.AgentInput) ([]domain.TestCase, error) {
	a.visit("execute")
	return a.cases, a.casesErr
}

func (a *recordingAgent) CollectEvidence(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.Evidence, error) {
	a.visit("evidence")
	return []domain.Evidence{{EvidenceID: "e1"}}, a.evidenceErr
}

func (a *recordingAgent) AnalyzeFailures(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.RootCauseAnalysis, error) {
	a.visit("rca")
	return []domain.RootCauseAnalysis{{IssueID: "i1", Severity: "high"}}, nil
}

func (a *recordingAgent) Recommend(ctx context.Context, cases []domain.TestCase, analyses []domain.RootCauseAnalysis, input *domain.AgentInput) ([]domain.Recommendation, error) {
	a.visit("recommend")
	return []domain.Recommendation{{RecommendationID: "r1"}}, nil
}

func passingCases() []domain.TestCase {
	return []domain.TestCase{
		{ID: "t1", Outcome: domain.TestOutcomePassed},
		{ID: "t2", Outcome: domain.TestOutcomeSkipped},
	}
}

func mixedCases() []domain.TestCase {
	return []domain.TestCase{
		{ID: "t1", Outcome: domain.TestOutcomePassed},
		{ID: "t2", Outcome: domain.TestOutcomeFailed},
		{ID: "t3", Outcome: domain.TestOutcomeError},
	}
}

func TestDriverHappyPathSkipsAnalysisStages(t *testing.T) {
	agent := &recordingAgent{validateOK: true, cases: passingCases()}
	result := NewDriver(testLogger()).Run(context.Background(), "exec-1", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, []string{"validate", "scripts", "data", "execute", "evidence"}, agent.stages)
	assert.Equal(t, 2, result.TotalTests)
	assert.Equal(t, 1, result.PassedTests)
	assert.Equal(t, 1, result.SkippedTests)
	assert.Empty(t, result.RootCauseAnalyses)
	assert.Empty(t, result.Recommendations)
	assert.False(t, result.EndTime.IsZero())
	assert.NotEmpty(t, result.Logs)
}

func TestDriverRunsAnalysisStagesOnFailures(t *testing.T) {
	agent := &recordingAgent{validateOK: true, cases: mixedCases()}
	result := NewDriver(testLogger()).Run(context.Background(), "exec-2", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, []string{"validate", "scripts", "data", "execute", "evidence", "rca", "recommend"}, agent.stages)
	assert.Equal(t, 1, result.FailedTests)
	assert.Equal(t, 1, result.ErrorTests)
	assert.Len(t, result.RootCauseAnalyses, 1)
	assert.Len(t, result.Recommendations, 1)
}

func TestDriverValidationFailureAbortsPipeline(t *testing.T) {
	agent := &recordingAgent{validateOK: false}
	result := NewDriver(testLogger()).Run(context.Background(), "exec-3", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "input validation failed")
	assert.Equal(t, []string{"validate"}, agent.stages)
	assert.Empty(t, result.TestCases)
	assert.False(t, result.EndTime.IsZero())
}

func TestDriverStageFaultRetainsPartialOutputs(t *testing.T) {
	agent := &recordingAgent{validateOK: true, casesErr: errors.New("runner crashed")}
	result := NewDriver(testLogger()).Run(context.Background(), "exec-4", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "runner crashed")
	// Outputs from earlier stages survive the fault.
	assert.Len(t, result.TestScripts, 1)
	assert.NotEmpty(t, result.TestData)
	assert.Zero(t, result.TotalTests)
	assert.NoError(t, result.Validate())
}

func TestDriverRecoversStagePanic(t *testing.T) {
	agent := &recordingAgent{validateOK: true, cases: passingCases(), panicStage: "execute"}
	result := NewDriver(testLogger()).Run(context.Background(), "exec-5", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "pipeline panic")
	assert.False(t, result.EndTime.IsZero())
}

func TestDriverCancelledContextYieldsCancelledResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := &recordingAgent{validateOK: true, cases: passingCases()}
	result := NewDriver(testLogger()).Run(ctx, "exec-6", agent, &domain.AgentInput{})

	assert.Equal(t, domain.ExecutionStatusCancelled, result.Status)
	assert.Empty(t, result.ErrorMessage)
	assert.Empty(t, agent.stages)
	assert.False(t, result.EndTime.IsZero())
}
