// internal/domain/execution.go
package domain

import (
	"fmt"
	"time"
)

// ExecutionStatus defines the lifecycle state of one agent execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// TestOutcome is the per-test-case result.
type TestOutcome string

const (
	TestOutcomePassed  TestOutcome = "passed"
	TestOutcomeFailed  TestOutcome = "failed"
	TestOutcomeSkipped TestOutcome = "skipped"
	TestOutcomeError   TestOutcome = "error"
)

// TestCase is one executed test with its observed outcome.
type TestCase struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	TestType       string      `json:"test_type"`
	Steps          []string    `json:"steps,omitempty"`
	ExpectedResult string      `json:"expected_result,omitempty"`
	ActualResult   string      `json:"actual_result,omitempty"`
	Outcome        TestOutcome `json:"outcome"`
	ExecutionTime  float64     `json:"execution_time,omitempty"` // seconds
	ErrorMessage   string      `json:"error_message,omitempty"`
	EvidenceFiles  []string    `json:"evidence_files,omitempty"`
}

// Evidence is an opaque artifact reference produced alongside test cases.
// The orchestrator records the list but never inspects content.
type Evidence struct {
	EvidenceID   string    `json:"evidence_id"`
	TestCaseID   string    `json:"test_case_id"`
	EvidenceType string    `json:"evidence_type"` // screenshot, log, recording, report, data
	FilePath     string    `json:"file_path"`
	Timestamp    time.Time `json:"timestamp"`
	Description  string    `json:"description,omitempty"`
}

// RootCauseAnalysis is a structured explanation for a failing test case.
type RootCauseAnalysis struct {
	IssueID            string   `json:"issue_id"`
	Category           string   `json:"category"`
	RootCause          string   `json:"root_cause"`
	AffectedComponents []string `json:"affected_components,omitempty"`
	Severity           string   `json:"severity"` // low, medium, high, critical
	StackTrace         string   `json:"stack_trace,omitempty"`
}

// Recommendation is a remediation suggestion derived from one analysis.
type Recommendation struct {
	RecommendationID string              `json:"recommendation_id"`
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	Category         string              `json:"category"`
	Priority         string              `json:"priority"` // low, medium, high, critical
	SuggestedFix     string              `json:"suggested_fix"`
	CodeChanges      []map[string]string `json:"code_changes,omitempty"`
	RelatedRCA       string              `json:"related_rca,omitempty"`
}

// ExecutionResult aggregates everything one pipeline run produced. It is
// mutated only by the driver goroutine that owns the run; once stored with a
// terminal status it is read-only.
type ExecutionResult struct {
	ExecutionID string          `json:"execution_id"`
	AgentType   AgentType       `json:"agent_type"`
	Status      ExecutionStatus `json:"status"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time,omitzero"`
	Duration    float64         `json:"duration,omitempty"` // seconds

	TestScripts []TestScript   `json:"test_scripts,omitempty"`
	TestData    TestDataBundle `json:"test_data,omitempty"`
	TestCases   []TestCase     `json:"test_cases,omitempty"`
	Evidences   []Evidence     `json:"evidences,omitempty"`

	TotalTests   int `json:"total_tests"`
	PassedTests  int `json:"passed_tests"`
	FailedTests  int `json:"failed_tests"`
	SkippedTests int `json:"skipped_tests"`
	ErrorTests   int `json:"error_tests"`

	RootCauseAnalyses []RootCauseAnalysis `json:"root_cause_analyses,omitempty"`
	Recommendations   []Recommendation    `json:"recommendations,omitempty"`

	Logs         []string       `json:"logs,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metrics      map[string]any `json:"metrics,omitempty"`
}

// CountOutcomes recomputes the aggregate counters from the test case list.
func (r *ExecutionResult) CountOutcomes() {
	r.TotalTests = len(r.TestCases)
	r.PassedTests, r.FailedTests, r.SkippedTests, r.ErrorTests = 0, 0, 0, 0
	for _, tc := range r.TestCases {
		switch tc.Outcome {
		case TestOutcomePassed:
			r.PassedTests++
		case TestOutcomeFailed:
			r.FailedTests++
		case TestOutcomeSkipped:
			r.SkippedTests++
		case TestOutcomeError:
			r.ErrorTests++
		}
	}
}

// Finalize stamps the end time and derives the duration. Safe to call on
// every exit path; the first call wins.
func (r *ExecutionResult) Finalize(now time.Time) {
	if !r.EndTime.IsZero() {
		return
	}
	if now.Before(r.StartTime) {
		now = r.StartTime
	}
	r.EndTime = now
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
}

// Validate checks the structural invariants of a terminal result.
func (r *ExecutionResult) Validate() error {
	if r.ExecutionID == "" {
		return fmt.Errorf("execution result ID cannot be empty")
	}
	if r.AgentType == "" {
		return fmt.Errorf("execution result agent type cannot be empty")
	}
	if r.Status == "" {
		return fmt.Errorf("execution result status cannot be empty")
	}
	if r.Status.Terminal() {
		if sum := r.PassedTests + r.FailedTests + r.SkippedTests + r.ErrorTests; sum != r.TotalTests {
			return fmt.Errorf("test counters do not add up: %d != %d", sum, r.TotalTests)
		}
		if !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime) {
			return fmt.Errorf("execution end time precedes start time")
		}
	}
	return nil
}
