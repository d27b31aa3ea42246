// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"qualityforce/internal/domain"
	"qualityforce/internal/metrics"
	"qualityforce/internal/registry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options tunes orchestrator behavior.
type Options struct {
	// MaxConcurrent bounds the number of in-flight executions; admission
	// fails with ErrTooManyExecutions once reached. Zero disables the bound.
	MaxConcurrent int
	// ExecutionTimeout is the per-run deadline. A run exceeding it is
	// cancelled through the same path as an explicit cancel request. Zero
	// disables the deadline.
	ExecutionTimeout time.Duration
}

// Orchestrator is the execution control surface: it launches agent pipelines
// as background goroutines, tracks their lifecycle in the state store and
// exposes waiting, cancellation and status queries. All methods are safe for
// concurrent use.
type Orchestrator struct {
	registry *registry.Registry
	store    *Store
	driver   *Driver
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer

	// baseCtx parents every run so Shutdown can cancel them collectively.
	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// New creates an orchestrator over the given agent registry.
func New(reg *registry.Registry, opts Options, logger *slog.Logger) *Orchestrator {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Orchestrator{
		registry:   reg,
		store:      NewStore(opts.MaxConcurrent),
		driver:     NewDriver(logger),
		opts:       opts,
		logger:     logger.With("component", "orchestrator"),
		tracer:     otel.Tracer("qualityforce-orchestrator"),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// StartExecution launches one agent pipeline and returns its execution id
// without waiting for completion. Admission failures (unknown agent type,
// concurrency ceiling) surface synchronously; faults inside the background
// run never do, the driver converts them into a failed result instead.
func (o *Orchestrator) StartExecution(ctx context.Context, agentType domain.AgentType, input *domain.AgentInput, config map[string]any) (string, error) {
	_, span := o.tracer.Start(ctx, "orchestrator.StartExecution",
		trace.WithAttributes(attribute.String("agent.type", string(agentType))))
	defer span.End()

	agent, err := o.registry.New(agentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown agent type")
		return "", err
	}

	executionID := uuid.New().String()
	span.SetAttributes(attribute.String("execution.id", executionID))

	// Runs are parented on the orchestrator, not the caller's request
	// context: returning from StartExecution must not cancel the run.
	var runCtx context.Context
	var cancel context.CancelFunc
	if o.opts.ExecutionTimeout > 0 {
		runCtx, cancel = context.WithTimeout(o.baseCtx, o.opts.ExecutionTimeout)
	} else {
		runCtx, cancel = context.WithCancel(o.baseCtx)
	}

	done := make(chan struct{})
	if err := o.store.Insert(executionID, agentType, cancel, done); err != nil {
		cancel()
		span.RecordError(err)
		span.SetStatus(codes.Error, "admission rejected")
		return "", err
	}

	runInput := mergeConfig(input, config)

	o.logger.Info("starting execution", "execution_id", executionID, "agent_type", agentType)

	go func() {
		defer cancel()
		result := o.driver.Run(runCtx, executionID, agent, runInput)
		o.store.Complete(executionID, result)
		close(done)
		metrics.AgentExecutionsTotal.WithLabelValues(string(agentType), string(result.Status)).Inc()
		o.logger.Info("execution finished", "execution_id", executionID, "agent_type", agentType, "status", result.Status)
	}()

	return executionID, nil
}

// StartBatch launches a group of executions and returns the ids it launched,
// keyed by agent type. Parallel batches fan every item out before returning;
// sequential batches block on each item's completion before starting the
// next, and stop launching after a failed item unless ContinueOnFailure is
// set. Unknown agent types fail the whole batch before anything launches.
func (o *Orchestrator) StartBatch(ctx context.Context, batch *domain.BatchRequest) (map[domain.AgentType]string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.StartBatch", trace.WithAttributes(
		attribute.Int("batch.size", len(batch.Executions)),
		attribute.Bool("batch.parallel", batch.Parallel),
	))
	defer span.End()

	for i := range batch.Executions {
		if _, err := o.registry.MetadataFor(batch.Executions[i].AgentType); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unknown agent type in batch")
			return nil, err
		}
	}

	executionIDs := make(map[domain.AgentType]string, len(batch.Executions))

	if batch.Parallel {
		o.logger.Info("executing batch in parallel", "count", len(batch.Executions))
		for i := range batch.Executions {
			item := &batch.Executions[i]
			id, err := o.StartExecution(ctx, item.AgentType, item.Inputs, item.Config)
			if err != nil {
				o.logger.Error("failed to launch batch item", "agent_type", item.AgentType, "error", err)
				continue
			}
			executionIDs[item.AgentType] = id
		}
		return executionIDs, nil
	}

	o.logger.Info("executing batch sequentially", "count", len(batch.Executions))
	for i := range batch.Executions {
		item := &batch.Executions[i]
		id, err := o.StartExecution(ctx, item.AgentType, item.Inputs, item.Config)
		if err != nil {
			o.logger.Error("failed to launch batch item", "agent_type", item.AgentType, "error", err)
			if !batch.ContinueOnFailure {
				break
			}
			continue
		}
		executionIDs[item.AgentType] = id

		if err := o.AwaitCompletion(ctx, id, 0); err != nil {
			return executionIDs, err
		}

		if res, ok := o.Result(id); ok && res.Status == domain.ExecutionStatusFailed && !batch.ContinueOnFailure {
			o.logger.Warn("stopping batch execution due to failure", "execution_id", id, "agent_type", item.AgentType)
			break
		}
	}
	return executionIDs, nil
}

// AwaitCompletion blocks until the execution reaches a terminal state or the
// timeout elapses. On timeout the execution is cancelled rather than left
// running unbounded. A zero timeout waits indefinitely (bounded only by the
// run's own deadline and the caller's context).
func (o *Orchestrator) AwaitCompletion(ctx context.Context, executionID string, timeout time.Duration) error {
	h, ok := o.store.Handle(executionID)
	if !ok {
		if _, ok := o.store.Result(executionID); ok {
			return nil
		}
		return domain.ErrExecutionNotFound
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-h.done:
		return nil
	case <-timeoutCh:
		o.logger.Warn("execution timed out, cancelling", "execution_id", executionID)
		o.Cancel(ctx, executionID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cooperative cancellation of a running execution and waits
// for it to terminate, so it never returns while the run might still mutate
// shared state. Returns false when the id is unknown or the execution had
// already reached a terminal state.
func (o *Orchestrator) Cancel(ctx context.Context, executionID string) bool {
	_, span := o.tracer.Start(ctx, "orchestrator.Cancel",
		trace.WithAttributes(attribute.String("execution.id", executionID)))
	defer span.End()

	h, ok := o.store.Handle(executionID)
	if !ok {
		return false
	}

	h.cancel()
	<-h.done

	// The driver normally writes the cancelled result itself; this covers a
	// run that won the race and finished without observing the cancel, plus
	// the minimal-result path required when no result exists at all.
	o.store.EnsureCancelled(executionID, h.agentType, h.startedAt)
	o.logger.Info("cancelled execution", "execution_id", executionID)
	return true
}

// Status reports the lifecycle state of an execution.
func (o *Orchestrator) Status(executionID string) (domain.ExecutionStatus, bool) {
	return o.store.Status(executionID)
}

// Result returns the terminal result of an execution, if one exists yet.
func (o *Orchestrator) Result(executionID string) (*domain.ExecutionResult, bool) {
	return o.store.Result(executionID)
}

// Results returns a snapshot of every terminal result the orchestrator holds.
func (o *Orchestrator) Results() []*domain.ExecutionResult {
	return o.store.Results()
}

// ActiveCount returns the number of executions currently running.
func (o *Orchestrator) ActiveCount() int {
	return o.store.ActiveCount()
}

// Shutdown cancels every still-running execution and waits for each to
// terminate. Already-terminal results are kept.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.logger.Info("shutting down orchestrator", "active", o.store.ActiveCount())

	handles := o.store.ActiveHandles()
	o.baseCancel()

	for id, h := range handles {
		select {
		case <-h.done:
		case <-ctx.Done():
			o.logger.Error("shutdown wait aborted", "execution_id", id, "error", ctx.Err())
			return ctx.Err()
		}
		o.store.EnsureCancelled(id, h.agentType, h.startedAt)
	}

	o.logger.Info("orchestrator shutdown complete")
	return nil
}

// mergeConfig overlays per-request config onto a copy of the input so the
// caller's value is never mutated.
func mergeConfig(input *domain.AgentInput, config map[string]any) *domain.AgentInput {
	merged := domain.AgentInput{}
	if input != nil {
		merged = *input
	}
	if len(config) > 0 {
		cfg := make(map[string]any, len(merged.Config)+len(config))
		maps.Copy(cfg, merged.Config)
		maps.Copy(cfg, config)
		merged.Config = cfg
	}
	return &merged
}
