// internal/api/http/dto.go
package http

import (
	"qualityforce/internal/domain"
)

// AgentInputRequest is the DTO for pipeline inputs.
type AgentInputRequest struct {
	SourceCode      string            `json:"source_code,omitempty"`
	RequirementsDoc string            `json:"requirements_doc,omitempty"`
	FRD             string            `json:"frd,omitempty"`
	BRD             string            `json:"brd,omitempty"`
	Libraries       []string          `json:"libraries,omitempty"`
	Endpoints       []string          `json:"endpoints,omitempty"`
	APISpecs        map[string]any    `json:"api_specs,omitempty"`
	APIKeys         map[string]string `json:"api_keys,omitempty"`
	ArchitectureDoc string            `json:"architecture_doc,omitempty"`
	Config          map[string]any    `json:"config,omitempty"`
}

// ToDomain converts the input DTO to a domain.AgentInput.
func (r *AgentInputRequest) ToDomain() *domain.AgentInput {
	if r == nil {
		return nil
	}
	return &domain.AgentInput{
		SourceCode:      r.SourceCode,
		RequirementsDoc: r.RequirementsDoc,
		FRD:             r.FRD,
		BRD:             r.BRD,
		Libraries:       r.Libraries,
		Endpoints:       r.Endpoints,
		APISpecs:        r.APISpecs,
		APIKeys:         r.APIKeys,
		ArchitectureDoc: r.ArchitectureDoc,
		Config:          r.Config,
	}
}

// ExecuteRequest is the DTO for starting one agent execution.
type ExecuteRequest struct {
	AgentType string             `json:"agent_type" validate:"required,agenttype"`
	Inputs    *AgentInputRequest `json:"inputs"`
	Config    map[string]any     `json:"config,omitempty"`
}

// ExecuteResponse acknowledges a started execution.
type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
	AgentType   string `json:"agent_type"`
	Status      string `json:"status"`
}

// BatchItemRequest is one entry of a batch execution request.
type BatchItemRequest struct {
	AgentType string             `json:"agent_type" validate:"required,agenttype"`
	Inputs    *AgentInputRequest `json:"inputs"`
	Config    map[string]any     `json:"config,omitempty"`
}

// BatchExecuteRequest is the DTO for starting a batch of executions.
type BatchExecuteRequest struct {
	Executions        []BatchItemRequest `json:"executions" validate:"required,min=1,dive"`
	Parallel          bool               `json:"parallel"`
	ContinueOnFailure bool               `json:"continue_on_failure"`
}

// ToDomain converts the batch DTO to a domain.BatchRequest.
func (r *BatchExecuteRequest) ToDomain() *domain.BatchRequest {
	batch := &domain.BatchRequest{
		Executions:        make([]domain.ExecutionRequest, 0, len(r.Executions)),
		Parallel:          r.Parallel,
		ContinueOnFailure: r.ContinueOnFailure,
	}
	for i := range r.Executions {
		item := &r.Executions[i]
		batch.Executions = append(batch.Executions, domain.ExecutionRequest{
			AgentType: domain.AgentType(item.AgentType),
			Inputs:    item.Inputs.ToDomain(),
			Config:    item.Config,
		})
	}
	return batch
}

// BatchExecuteResponse maps each agent type to the execution id it launched.
type BatchExecuteResponse struct {
	ExecutionIDs map[string]string `json:"execution_ids"`
	Parallel     bool              `json:"parallel"`
}

// StatusResponse reports the lifecycle state of one execution.
type StatusResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// CancelResponse reports the outcome of a cancel request.
type CancelResponse struct {
	ExecutionID string `json:"execution_id"`
	Cancelled   bool   `json:"cancelled"`
}

// ActiveCountResponse reports how many executions are currently running.
type ActiveCountResponse struct {
	ActiveExecutions int `json:"active_executions"`
}

// ResultSummary condenses one execution result for list views.
type ResultSummary struct {
	ExecutionID  string  `json:"execution_id"`
	AgentType    string  `json:"agent_type"`
	Status       string  `json:"status"`
	TotalTests   int     `json:"total_tests"`
	PassedTests  int     `json:"passed_tests"`
	FailedTests  int     `json:"failed_tests"`
	SkippedTests int     `json:"skipped_tests"`
	ErrorTests   int     `json:"error_tests"`
	Duration     float64 `json:"duration"`
}

// NewResultSummary condenses a result into its summary form.
func NewResultSummary(result *domain.ExecutionResult) ResultSummary {
	return ResultSummary{
		ExecutionID:  result.ExecutionID,
		AgentType:    string(result.AgentType),
		Status:       string(result.Status),
		TotalTests:   result.TotalTests,
		PassedTests:  result.PassedTests,
		FailedTests:  result.FailedTests,
		SkippedTests: result.SkippedTests,
		ErrorTests:   result.ErrorTests,
		Duration:     result.Duration,
	}
}

// ErrorResponse is the shared error payload.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
