// internal/domain/input.go
package domain

// AgentInput is the configuration bag describing what a pipeline operates on.
// Every field is optional at the model level; each agent declares which fields
// it requires via its metadata and enforces them in ValidateInputs.
type AgentInput struct {
	SourceCode      string            `json:"source_code,omitempty"`
	RequirementsDoc string            `json:"requirements_doc,omitempty"`
	FRD             string            `json:"frd,omitempty"` // Functional Requirements Document
	BRD             string            `json:"brd,omitempty"` // Business Requirements Document
	Libraries       []string          `json:"libraries,omitempty"`
	Endpoints       []string          `json:"endpoints,omitempty"`
	APISpecs        map[string]any    `json:"api_specs,omitempty"`
	APIKeys         map[string]string `json:"api_keys,omitempty"`
	ArchitectureDoc string            `json:"architecture_doc,omitempty"`
	Config          map[string]any    `json:"config,omitempty"`
}

// ConfigString returns a string config value or the given default.
func (in *AgentInput) ConfigString(key, def string) string {
	if in == nil || in.Config == nil {
		return def
	}
	if v, ok := in.Config[key].(string); ok && v != "" {
		return v
	}
	return def
}

// ConfigInt returns an integer config value or the given default. JSON decoding
// yields float64 for numbers, so both forms are accepted.
func (in *AgentInput) ConfigInt(key string, def int) int {
	if in == nil || in.Config == nil {
		return def
	}
	switch v := in.Config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
