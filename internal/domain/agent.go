// internal/domain/agent.go
package domain

import (
	"context"
	"fmt"
)

// AgentType identifies a testing agent implementation. The set is closed:
// every value maps to a compiled-in agent registered at startup.
type AgentType string

const (
	AgentTypeUnitTesting        AgentType = "unit_testing"
	AgentTypeFunctionalTesting  AgentType = "functional_testing"
	AgentTypeIntegrationTesting AgentType = "integration_testing"
	AgentTypeSecurityTesting    AgentType = "security_testing"
	AgentTypeLoadTesting        AgentType = "load_testing"
	AgentTypeStressTesting      AgentType = "stress_testing"
	AgentTypeRegressionTesting  AgentType = "regression_testing"
)

// KnownAgentTypes lists every agent type the service can register.
var KnownAgentTypes = []AgentType{
	AgentTypeUnitTesting,
	AgentTypeFunctionalTesting,
	AgentTypeIntegrationTesting,
	AgentTypeSecurityTesting,
	AgentTypeLoadTesting,
	AgentTypeStressTesting,
	AgentTypeRegressionTesting,
}

// Validate checks that the agent type is one of the known values.
func (t AgentType) Validate() error {
	for _, known := range KnownAgentTypes {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("invalid agent type: %s", t)
}

// AgentMetadata describes an agent's catalog entry without running it.
type AgentMetadata struct {
	AgentType         AgentType `json:"agent_type"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Version           string    `json:"version"`
	RequiredInputs    []string  `json:"required_inputs"`
	OptionalInputs    []string  `json:"optional_inputs"`
	Capabilities      []string  `json:"capabilities"`
	// Advisory hint in seconds; the orchestrator never schedules on it.
	EstimatedDuration int `json:"estimated_duration,omitempty"`
}

// TestScript is a generated test plan artifact. Opaque to the orchestrator.
type TestScript struct {
	ScriptID      string `json:"script_id"`
	TargetName    string `json:"target_name"`
	Language      string `json:"language,omitempty"`
	TestCode      string `json:"test_code"`
	TestFramework string `json:"test_framework,omitempty"`
	Description   string `json:"description,omitempty"`
}

// TestDataBundle holds generated fixtures consumed only by the execute stage.
type TestDataBundle map[string][]map[string]any

// Agent is the fixed pipeline contract every testing agent implements.
// The orchestrator's driver runs the stages in declaration order; stages
// six and seven (AnalyzeFailures, Recommend) run only when the executed
// test cases contain failures or errors. Every stage takes a context and
// must return promptly after cancellation.
type Agent interface {
	// Metadata returns the agent's catalog entry. Must be side-effect free.
	Metadata() AgentMetadata

	// ValidateInputs reports whether the declared required inputs are present.
	// Returning false aborts the run before any generation happens.
	ValidateInputs(ctx context.Context, input *AgentInput) (bool, error)

	// GenerateScripts produces the test plan artifacts for the run.
	GenerateScripts(ctx context.Context, input *AgentInput) ([]TestScript, error)

	// GenerateData produces the fixtures the execute stage consumes.
	GenerateData(ctx context.Context, input *AgentInput) (TestDataBundle, error)

	// Execute runs the generated scripts against the generated data and
	// returns per-case outcomes. This is the only stage that determines
	// pass/fail counts.
	Execute(ctx context.Context, scripts []TestScript, data TestDataBundle, input *AgentInput) ([]TestCase, error)

	// CollectEvidence returns artifact references for the executed cases.
	CollectEvidence(ctx context.Context, cases []TestCase, input *AgentInput) ([]Evidence, error)

	// AnalyzeFailures explains failing and errored cases.
	AnalyzeFailures(ctx context.Context, cases []TestCase, input *AgentInput) ([]RootCauseAnalysis, error)

	// Recommend derives remediations from the analyses.
	Recommend(ctx context.Context, cases []TestCase, analyses []RootCauseAnalysis, input *AgentInput) ([]Recommendation, error)
}

// AgentFactory produces a fresh agent instance per execution. Agents must not
// share mutable state across instances.
type AgentFactory func() Agent
