// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"qualityforce/internal/domain"
	"qualityforce/internal/metrics"
	"qualityforce/internal/orchestrator"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// cronScheduler triggers recurring agent executions at their cron times. It
// only dispatches; the orchestrator owns the execution lifecycle.
type cronScheduler struct {
	cron   *cron.Cron
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler that dispatches into the given orchestrator.
func New(orch *orchestrator.Orchestrator, logger *slog.Logger) domain.Scheduler {
	return &cronScheduler{
		cron:    cron.New(cron.WithSeconds()),
		orch:    orch,
		logger:  logger.With("component", "scheduler"),
		tracer:  otel.Tracer("qualityforce-scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

func (s *cronScheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started")
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("scheduler stopping...")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *cronScheduler) Stop() {
	// Stop logic is handled by context cancellation in Start()
}

// AddSchedule registers a recurring execution, replacing any schedule with
// the same name.
func (s *cronScheduler) AddSchedule(schedule *domain.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[schedule.Name]; ok {
		s.cron.Remove(entryID)
	}

	wrapper := &scheduleWrapper{
		schedule: schedule,
		orch:     s.orch,
		logger:   s.logger.With("schedule", schedule.Name),
		tracer:   s.tracer,
	}
	entryID, err := s.cron.AddJob(schedule.CronExpr, wrapper)
	if err != nil {
		s.logger.Error("failed to add schedule to cron", "schedule", schedule.Name, "error", err)
		return err
	}

	s.entries[schedule.Name] = entryID
	s.logger.Info("added schedule", "schedule", schedule.Name, "cron_expr", schedule.CronExpr, "agent_type", schedule.Agent)
	return nil
}

// RemoveSchedule drops a schedule by name. Unknown names are a no-op.
func (s *cronScheduler) RemoveSchedule(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[name]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, name)
		s.logger.Info("removed schedule", "schedule", name)
	}
	return nil
}

type scheduleWrapper struct {
	schedule *domain.Schedule
	orch     *orchestrator.Orchestrator
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Run is called by the cron library at each tick and starts one execution.
func (w *scheduleWrapper) Run() {
	ctx, span := w.tracer.Start(context.Background(), "scheduler.Dispatch",
		trace.WithAttributes(
			attribute.String("schedule.name", w.schedule.Name),
			attribute.String("agent.type", string(w.schedule.Agent)),
		))
	defer span.End()

	executionID, err := w.orch.StartExecution(ctx, w.schedule.Agent, w.schedule.Inputs, nil)
	if err != nil {
		span.RecordError(err)
		outcome := "error"
		if errors.Is(err, domain.ErrTooManyExecutions) {
			outcome = "rejected"
			w.logger.Warn("scheduled execution rejected, capacity reached", "error", err)
		} else {
			w.logger.Error("failed to start scheduled execution", "error", err)
		}
		metrics.ScheduledDispatchesTotal.WithLabelValues(w.schedule.Name, outcome).Inc()
		return
	}

	span.SetAttributes(attribute.String("execution.id", executionID))
	metrics.ScheduledDispatchesTotal.WithLabelValues(w.schedule.Name, "dispatched").Inc()
	w.logger.Info("dispatched scheduled execution", "execution_id", executionID)
}
