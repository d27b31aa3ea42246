// internal/orchestrator/store_test.go
package orchestrator

import (
	"testing"
	"time"

	"qualityforce/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertHandle(t *testing.T, s *Store, id string) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, s.Insert(id, domain.AgentTypeUnitTesting, func() {}, done))
	return done
}

func terminalResult(id string, status domain.ExecutionStatus) *domain.ExecutionResult {
	res := &domain.ExecutionResult{
		ExecutionID: id,
		AgentType:   domain.AgentTypeUnitTesting,
		Status:      status,
		StartTime:   time.Now(),
	}
	res.Finalize(time.Now())
	return res
}

func TestStoreInsertEnforcesCapacity(t *testing.T) {
	s := NewStore(2)
	insertHandle(t, s, "a")
	insertHandle(t, s, "b")

	err := s.Insert("c", domain.AgentTypeUnitTesting, func() {}, make(chan struct{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTooManyExecutions)
	assert.Equal(t, 2, s.ActiveCount())
}

func TestStoreZeroCapacityIsUnlimited(t *testing.T) {
	s := NewStore(0)
	for _, id := range []string{"a", "b", "c", "d"} {
		insertHandle(t, s, id)
	}
	assert.Equal(t, 4, s.ActiveCount())
}

func TestStoreInsertRejectsDuplicateID(t *testing.T) {
	s := NewStore(0)
	insertHandle(t, s, "a")
	err := s.Insert("a", domain.AgentTypeUnitTesting, func() {}, make(chan struct{}))
	assert.Error(t, err)
}

func TestStoreCompleteReleasesCapacity(t *testing.T) {
	s := NewStore(1)
	insertHandle(t, s, "a")

	s.Complete("a", terminalResult("a", domain.ExecutionStatusCompleted))
	assert.Zero(t, s.ActiveCount())

	insertHandle(t, s, "b")

	res, ok := s.Result("a")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, res.Status)
}

func TestStoreStatusReflectsLifecycle(t *testing.T) {
	s := NewStore(0)

	_, ok := s.Status("a")
	assert.False(t, ok)

	insertHandle(t, s, "a")
	status, ok := s.Status("a")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusRunning, status)

	s.Complete("a", terminalResult("a", domain.ExecutionStatusFailed))
	status, ok = s.Status("a")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusFailed, status)
}

func TestEnsureCancelledSynthesizesMinimalResult(t *testing.T) {
	s := NewStore(0)
	started := time.Now().Add(-time.Second)

	s.EnsureCancelled("a", domain.AgentTypeUnitTesting, started)

	res, ok := s.Result("a")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCancelled, res.Status)
	assert.Equal(t, started, res.StartTime)
	assert.False(t, res.EndTime.IsZero())
	assert.NoError(t, res.Validate())
}

func TestEnsureCancelledKeepsTerminalResult(t *testing.T) {
	s := NewStore(0)
	s.Complete("a", terminalResult("a", domain.ExecutionStatusCompleted))

	s.EnsureCancelled("a", domain.AgentTypeUnitTesting, time.Now())

	res, ok := s.Result("a")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, res.Status)
}

func TestStoreResultsSnapshot(t *testing.T) {
	s := NewStore(0)
	s.Complete("a", terminalResult("a", domain.ExecutionStatusCompleted))
	s.Complete("b", terminalResult("b", domain.ExecutionStatusFailed))

	assert.Len(t, s.Results(), 2)
}
