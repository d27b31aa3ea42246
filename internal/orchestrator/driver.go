// internal/orchestrator/driver.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"qualityforce/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// errValidationFailed is the fixed message recorded when stage one rejects
// the inputs.
var errValidationFailed = errors.New("input validation failed")

// runLog buffers an execution's log lines for the result while mirroring
// them to the structured logger. Owned by a single driver goroutine.
type runLog struct {
	logger *slog.Logger
	lines  []string
}

func newRunLog(logger *slog.Logger) *runLog {
	return &runLog{logger: logger}
}

func (l *runLog) add(level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, fmt.Sprintf("[%s] [%s] %s", time.Now().Format(time.RFC3339), level, msg))
	return msg
}

func (l *runLog) Infof(format string, args ...any) {
	l.logger.Info(l.add("INFO", format, args...))
}

func (l *runLog) Warnf(format string, args ...any) {
	l.logger.Warn(l.add("WARN", format, args...))
}

func (l *runLog) Errorf(format string, args ...any) {
	l.logger.Error(l.add("ERROR", format, args...))
}

// Driver runs the fixed pipeline stage sequence for every agent variant and
// assembles the execution result. It is shared across all agents; nothing in
// it is agent specific.
type Driver struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewDriver creates the shared pipeline driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		logger: logger.With("component", "pipeline-driver"),
		tracer: otel.Tracer("qualityforce-pipeline"),
	}
}

// Run executes the full stage sequence and always returns a finalized
// result, recovering stage faults and panics into a failed status. Context
// cancellation between stages terminates the run with a cancelled status;
// outputs collected before the terminating stage are retained.
func (d *Driver) Run(ctx context.Context, executionID string, agent domain.Agent, input *domain.AgentInput) (result *domain.ExecutionResult) {
	md := agent.Metadata()
	result = &domain.ExecutionResult{
		ExecutionID: executionID,
		AgentType:   md.AgentType,
		Status:      domain.ExecutionStatusRunning,
		StartTime:   time.Now(),
	}

	rl := newRunLog(d.logger.With("execution_id", executionID, "agent_type", md.AgentType))

	ctx, span := d.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("execution.id", executionID),
		attribute.String("agent.type", string(md.AgentType)),
	))

	defer func() {
		if p := recover(); p != nil {
			rl.Errorf("pipeline stage panicked: %v", p)
			result.Status = domain.ExecutionStatusFailed
			result.ErrorMessage = fmt.Sprintf("pipeline panic: %v", p)
			span.SetStatus(codes.Error, "pipeline panic")
		}
		result.Finalize(time.Now())
		result.Logs = rl.lines
		span.SetAttributes(attribute.String("execution.status", string(result.Status)))
		span.End()
	}()

	rl.Infof("starting %s execution", md.Name)

	if err := d.runStages(ctx, agent, input, result, rl); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			rl.Warnf("execution cancelled")
			result.Status = domain.ExecutionStatusCancelled
			span.SetStatus(codes.Error, "execution cancelled")
			return result
		}
		rl.Errorf("execution failed: %v", err)
		result.Status = domain.ExecutionStatusFailed
		result.ErrorMessage = err.Error()
		span.SetStatus(codes.Error, "execution failed")
		span.RecordError(err)
		return result
	}

	rl.Infof("execution completed successfully")
	result.Status = domain.ExecutionStatusCompleted
	return result
}

// runStages walks the stage sequence in its fixed order. The analysis stages
// run only when the executed cases contain failures or errors.
func (d *Driver) runStages(ctx context.Context, agent domain.Agent, input *domain.AgentInput, result *domain.ExecutionResult, rl *runLog) error {
	err := d.stage(ctx, "ValidateInputs", func(ctx context.Context) error {
		rl.Infof("validating inputs")
		ok, err := agent.ValidateInputs(ctx, input)
		if err != nil {
			return err
		}
		if !ok {
			return errValidationFailed
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = d.stage(ctx, "GenerateScripts", func(ctx context.Context) error {
		rl.Infof("generating test scripts")
		scripts, err := agent.GenerateScripts(ctx, input)
		if err != nil {
			return err
		}
		result.TestScripts = scripts
		rl.Infof("generated %d test scripts", len(scripts))
		return nil
	})
	if err != nil {
		return err
	}

	err = d.stage(ctx, "GenerateData", func(ctx context.Context) error {
		rl.Infof("generating test data")
		data, err := agent.GenerateData(ctx, input)
		if err != nil {
			return err
		}
		result.TestData = data
		return nil
	})
	if err != nil {
		return err
	}

	err = d.stage(ctx, "Execute", func(ctx context.Context) error {
		rl.Infof("executing %d test scripts", len(result.TestScripts))
		cases, err := agent.Execute(ctx, result.TestScripts, result.TestData, input)
		if err != nil {
			return err
		}
		result.TestCases = cases
		result.CountOutcomes()
		rl.Infof("tests completed: %d passed, %d failed, %d skipped, %d errors",
			result.PassedTests, result.FailedTests, result.SkippedTests, result.ErrorTests)
		return nil
	})
	if err != nil {
		return err
	}

	err = d.stage(ctx, "CollectEvidence", func(ctx context.Context) error {
		rl.Infof("collecting test evidence")
		evidences, err := agent.CollectEvidence(ctx, result.TestCases, input)
		if err != nil {
			return err
		}
		result.Evidences = evidences
		return nil
	})
	if err != nil {
		return err
	}

	if result.FailedTests+result.ErrorTests == 0 {
		return nil
	}

	err = d.stage(ctx, "AnalyzeFailures", func(ctx context.Context) error {
		rl.Infof("performing root cause analysis")
		analyses, err := agent.AnalyzeFailures(ctx, result.TestCases, input)
		if err != nil {
			return err
		}
		result.RootCauseAnalyses = analyses
		return nil
	})
	if err != nil {
		return err
	}

	return d.stage(ctx, "Recommend", func(ctx context.Context) error {
		rl.Infof("generating recommendations")
		recs, err := agent.Recommend(ctx, result.TestCases, result.RootCauseAnalyses, input)
		if err != nil {
			return err
		}
		result.Recommendations = recs
		return nil
	})
}

// stage checks for cancellation before running a stage and wraps it in a span.
func (d *Driver) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := d.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage failed")
		return fmt.Errorf("stage %s: %w", name, err)
	}
	return nil
}
