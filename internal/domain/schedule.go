// internal/domain/schedule.go
package domain

import (
	"context"
	"fmt"
)

// Schedule defines a recurring execution of one agent on a cron expression.
type Schedule struct {
	Name     string      `json:"name"`
	CronExpr string      `json:"cron_expr"`
	Agent    AgentType   `json:"agent_type"`
	Inputs   *AgentInput `json:"inputs,omitempty"`
}

// Validate checks if the schedule definition is valid.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schedule name cannot be empty")
	}
	if s.CronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	if err := s.Agent.Validate(); err != nil {
		return fmt.Errorf("schedule %s: %w", s.Name, err)
	}
	return nil
}

// Scheduler triggers agent executions on a recurring basis.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()

	AddSchedule(schedule *Schedule) error
	RemoveSchedule(name string) error
}
