// internal/agents/agents.go
// Package agents contains the built-in testing agent catalog. Every agent
// implements the domain.Agent pipeline contract; execution is simulated
// against generated scripts and fixtures rather than invoking real test
// tooling.
package agents

import (
	"time"

	"qualityforce/internal/domain"
	"qualityforce/internal/registry"

	"github.com/google/uuid"
)

// RegisterAll registers the full built-in agent catalog.
func RegisterAll(reg *registry.Registry) error {
	catalog := map[domain.AgentType]domain.AgentFactory{
		domain.AgentTypeUnitTesting:        func() domain.Agent { return &UnitTestingAgent{} },
		domain.AgentTypeFunctionalTesting:  func() domain.Agent { return &FunctionalTestingAgent{} },
		domain.AgentTypeIntegrationTesting: func() domain.Agent { return &IntegrationTestingAgent{} },
		domain.AgentTypeSecurityTesting:    func() domain.Agent { return &SecurityTestingAgent{} },
		domain.AgentTypeLoadTesting:        func() domain.Agent { return &LoadTestingAgent{} },
		domain.AgentTypeStressTesting:      func() domain.Agent { return &StressTestingAgent{} },
		domain.AgentTypeRegressionTesting:  func() domain.Agent { return &RegressionTestingAgent{} },
	}
	for agentType, factory := range catalog {
		if err := reg.Register(agentType, factory); err != nil {
			return err
		}
	}
	return nil
}

// newEvidence builds one artifact reference for a test case.
func newEvidence(testCaseID, evidenceType, filePath, description string) domain.Evidence {
	return domain.Evidence{
		EvidenceID:   uuid.New().String(),
		TestCaseID:   testCaseID,
		EvidenceType: evidenceType,
		FilePath:     filePath,
		Timestamp:    time.Now(),
		Description:  description,
	}
}
