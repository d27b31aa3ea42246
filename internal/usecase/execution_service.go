// internal/usecase/execution_service.go
package usecase

import (
	"context"
	"log/slog"
	"time"

	"qualityforce/internal/domain"
	"qualityforce/internal/orchestrator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionService sits between the API layer and the orchestrator. It owns
// the persistence side-effect: every execution it starts gets its terminal
// result written to the repository once the run finishes.
type ExecutionService struct {
	orch   *orchestrator.Orchestrator
	repo   domain.ExecutionRepository
	logger *slog.Logger
	tracer trace.Tracer
}

// NewExecutionService creates the service bridging the orchestrator and the
// result repository.
func NewExecutionService(orch *orchestrator.Orchestrator, repo domain.ExecutionRepository, logger *slog.Logger) *ExecutionService {
	return &ExecutionService{
		orch:   orch,
		repo:   repo,
		logger: logger.With("component", "execution-service"),
		tracer: otel.Tracer("qualityforce-usecase"),
	}
}

// Start launches one execution and arranges for its result to be persisted.
func (s *ExecutionService) Start(ctx context.Context, agentType domain.AgentType, inputs *domain.AgentInput, config map[string]any) (string, error) {
	ctx, span := s.tracer.Start(ctx, "service.StartExecution",
		trace.WithAttributes(attribute.String("agent.type", string(agentType))))
	defer span.End()

	executionID, err := s.orch.StartExecution(ctx, agentType, inputs, config)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	go s.persistWhenDone(executionID)
	return executionID, nil
}

// StartBatch launches a batch and arranges persistence for every launched id.
func (s *ExecutionService) StartBatch(ctx context.Context, batch *domain.BatchRequest) (map[domain.AgentType]string, error) {
	ctx, span := s.tracer.Start(ctx, "service.StartBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(batch.Executions))))
	defer span.End()

	ids, err := s.orch.StartBatch(ctx, batch)
	for _, id := range ids {
		go s.persistWhenDone(id)
	}
	if err != nil {
		span.RecordError(err)
	}
	return ids, err
}

// persistWhenDone blocks until the run terminates and writes its result to
// the repository. Persistence failures are logged, never surfaced: the
// in-memory result stays available either way.
func (s *ExecutionService) persistWhenDone(executionID string) {
	ctx := context.Background()
	if err := s.orch.AwaitCompletion(ctx, executionID, 0); err != nil {
		s.logger.Error("waiting for execution failed", "execution_id", executionID, "error", err)
		return
	}
	result, ok := s.orch.Result(executionID)
	if !ok {
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.repo.Save(saveCtx, result); err != nil {
		s.logger.Error("failed to persist execution result", "execution_id", executionID, "error", err)
	}
}

// Status reports the lifecycle state of an execution known to the
// orchestrator.
func (s *ExecutionService) Status(executionID string) (domain.ExecutionStatus, bool) {
	return s.orch.Status(executionID)
}

// Result returns an execution result, preferring the in-memory copy and
// falling back to the repository for runs from earlier process lifetimes.
func (s *ExecutionService) Result(ctx context.Context, executionID string) (*domain.ExecutionResult, error) {
	if result, ok := s.orch.Result(executionID); ok {
		return result, nil
	}
	return s.repo.Load(ctx, executionID)
}

// Results snapshots every terminal result currently held in memory.
func (s *ExecutionService) Results() []*domain.ExecutionResult {
	return s.orch.Results()
}

// Cancel requests cancellation of a running execution.
func (s *ExecutionService) Cancel(ctx context.Context, executionID string) bool {
	return s.orch.Cancel(ctx, executionID)
}

// ActiveCount reports how many executions are currently running.
func (s *ExecutionService) ActiveCount() int {
	return s.orch.ActiveCount()
}
