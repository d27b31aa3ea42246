// internal/domain/batch.go
package domain

import "fmt"

// ExecutionRequest asks for one agent run.
type ExecutionRequest struct {
	AgentType AgentType      `json:"agent_type"`
	Inputs    *AgentInput    `json:"inputs"`
	Config    map[string]any `json:"config,omitempty"`
}

// Validate checks that the request addresses a known agent type.
func (r *ExecutionRequest) Validate() error {
	if err := r.AgentType.Validate(); err != nil {
		return err
	}
	return nil
}

// BatchRequest is an ordered group of execution requests. Parallel batches
// fan every item out at once; sequential batches start item i+1 only after
// item i reached a terminal state, and ContinueOnFailure controls whether a
// failed item halts the remainder.
type BatchRequest struct {
	Executions        []ExecutionRequest `json:"executions"`
	Parallel          bool               `json:"parallel"`
	ContinueOnFailure bool               `json:"continue_on_failure"`
}

// Validate checks every item in the batch.
func (b *BatchRequest) Validate() error {
	if len(b.Executions) == 0 {
		return fmt.Errorf("batch request contains no executions")
	}
	for i := range b.Executions {
		if err := b.Executions[i].Validate(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}
