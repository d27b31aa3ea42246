// internal/domain/execution_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStatusTerminal(t *testing.T) {
	assert.False(t, ExecutionStatusPending.Terminal())
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.True(t, ExecutionStatusCompleted.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
	assert.True(t, ExecutionStatusCancelled.Terminal())
}

func TestCountOutcomes(t *testing.T) {
	res := &ExecutionResult{
		TestCases: []TestCase{
			{Outcome: TestOutcomePassed},
			{Outcome: TestOutcomePassed},
			{Outcome: TestOutcomeFailed},
			{Outcome: TestOutcomeSkipped},
			{Outcome: TestOutcomeError},
		},
	}
	res.CountOutcomes()

	assert.Equal(t, 5, res.TotalTests)
	assert.Equal(t, 2, res.PassedTests)
	assert.Equal(t, 1, res.FailedTests)
	assert.Equal(t, 1, res.SkippedTests)
	assert.Equal(t, 1, res.ErrorTests)
}

func TestFinalizeFirstCallWins(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	res := &ExecutionResult{StartTime: start}

	first := time.Now()
	res.Finalize(first)
	require.Equal(t, first, res.EndTime)
	assert.InDelta(t, 2.0, res.Duration, 0.5)

	res.Finalize(first.Add(time.Hour))
	assert.Equal(t, first, res.EndTime)
}

func TestFinalizeClampsClockSkew(t *testing.T) {
	start := time.Now()
	res := &ExecutionResult{StartTime: start}
	res.Finalize(start.Add(-time.Minute))

	assert.Equal(t, start, res.EndTime)
	assert.Zero(t, res.Duration)
}

func TestExecutionResultValidate(t *testing.T) {
	res := &ExecutionResult{
		ExecutionID: "e1",
		AgentType:   AgentTypeUnitTesting,
		Status:      ExecutionStatusCompleted,
		StartTime:   time.Now(),
		TotalTests:  2,
		PassedTests: 2,
	}
	res.Finalize(time.Now())
	assert.NoError(t, res.Validate())

	res.TotalTests = 3
	assert.Error(t, res.Validate())

	assert.Error(t, (&ExecutionResult{}).Validate())
}

func TestAgentTypeValidate(t *testing.T) {
	for _, agentType := range KnownAgentTypes {
		assert.NoError(t, agentType.Validate())
	}
	assert.Error(t, AgentType("quantum_testing").Validate())
	assert.Error(t, AgentType("").Validate())
}

func TestBatchRequestValidate(t *testing.T) {
	assert.Error(t, (&BatchRequest{}).Validate())

	batch := &BatchRequest{Executions: []ExecutionRequest{{AgentType: AgentTypeUnitTesting}}}
	assert.NoError(t, batch.Validate())

	batch.Executions = append(batch.Executions, ExecutionRequest{AgentType: "made_up"})
	err := batch.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch item 1")
}

func TestScheduleValidate(t *testing.T) {
	valid := &Schedule{Name: "nightly", CronExpr: "0 0 2 * * *", Agent: AgentTypeRegressionTesting}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&Schedule{CronExpr: "x", Agent: AgentTypeUnitTesting}).Validate())
	assert.Error(t, (&Schedule{Name: "n", Agent: AgentTypeUnitTesting}).Validate())
	assert.Error(t, (&Schedule{Name: "n", CronExpr: "x", Agent: "warp"}).Validate())
}

func TestAgentInputConfigHelpers(t *testing.T) {
	var nilInput *AgentInput
	assert.Equal(t, "fallback", nilInput.ConfigString("k", "fallback"))
	assert.Equal(t, 7, nilInput.ConfigInt("k", 7))

	input := &AgentInput{Config: map[string]any{
		"framework": "pytest",
		"retries":   float64(3),
		"workers":   4,
	}}
	assert.Equal(t, "pytest", input.ConfigString("framework", "go test"))
	assert.Equal(t, "go test", input.ConfigString("missing", "go test"))
	assert.Equal(t, 3, input.ConfigInt("retries", 0))
	assert.Equal(t, 4, input.ConfigInt("workers", 0))
	assert.Equal(t, 9, input.ConfigInt("missing", 9))
}
