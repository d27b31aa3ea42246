// internal/usecase/execution_service_test.go
package usecase

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"qualityforce/internal/agents"
	"qualityforce/internal/domain"
	"qualityforce/internal/infra/fsstore"
	"qualityforce/internal/orchestrator"
	"qualityforce/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*ExecutionService, domain.ExecutionRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.New(logger)
	require.NoError(t, agents.RegisterAll(reg))

	base := t.TempDir()
	repo, err := fsstore.New(filepath.Join(base, "results"), filepath.Join(base, "evidence"), logger)
	require.NoError(t, err)

	orch := orchestrator.New(reg, orchestrator.Options{}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})
	return NewExecutionService(orch, repo, logger), repo
}

func TestStartPersistsTerminalResult(t *testing.T) {
	service, repo := newTestService(t)

	id, err := service.Start(context.Background(), domain.AgentTypeUnitTesting,
		&domain.AgentInput{SourceCode: "func Add(a, b int) int { return a + b }"}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := repo.Load(context.Background(), id)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := repo.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, stored.Status)
	assert.Positive(t, stored.TotalTests)
}

func TestStartUnknownAgentType(t *testing.T) {
	service, _ := newTestService(t)
	_, err := service.Start(context.Background(), "mystery_testing", nil, nil)
	assert.Error(t, err)
}

func TestResultPrefersInMemoryThenRepository(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	// Seed a repository-only result from an earlier process lifetime.
	old := &domain.ExecutionResult{
		ExecutionID: "exec-old",
		AgentType:   domain.AgentTypeUnitTesting,
		Status:      domain.ExecutionStatusCompleted,
		StartTime:   time.Now().Add(-time.Hour),
	}
	old.Finalize(time.Now().Add(-time.Hour + time.Minute))
	_, err := repo.Save(ctx, old)
	require.NoError(t, err)

	got, err := service.Result(ctx, "exec-old")
	require.NoError(t, err)
	assert.Equal(t, "exec-old", got.ExecutionID)

	_, err = service.Result(ctx, "never-existed")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestStartBatchPersistsEveryItem(t *testing.T) {
	service, repo := newTestService(t)

	ids, err := service.StartBatch(context.Background(), &domain.BatchRequest{
		Executions: []domain.ExecutionRequest{
			{AgentType: domain.AgentTypeUnitTesting, Inputs: &domain.AgentInput{SourceCode: "func A() {}"}},
			{AgentType: domain.AgentTypeRegressionTesting, Inputs: &domain.AgentInput{SourceCode: "func B() {}"}},
		},
		Parallel: true,
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.Eventually(t, func() bool {
		stored, err := repo.ListIDs(context.Background())
		return err == nil && len(stored) == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCancelDelegatesToOrchestrator(t *testing.T) {
	service, _ := newTestService(t)
	assert.False(t, service.Cancel(context.Background(), "no-such-id"))
	assert.Zero(t, service.ActiveCount())
}
