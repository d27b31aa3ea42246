// internal/orchestrator/store.go
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qualityforce/internal/domain"
	"qualityforce/internal/metrics"
)

// handle tracks one in-flight execution: the cancellation entry point and the
// channel the run closes after its terminal result is stored.
type handle struct {
	cancel    context.CancelFunc
	done      chan struct{}
	agentType domain.AgentType
	startedAt time.Time
}

// Store is the execution state store: a single mutex guards the in-flight
// handle table and the terminal result table so that concurrent completions
// never lose updates. Results are only ever replaced, never mutated in place,
// so snapshot reads under the lock are safe to return.
type Store struct {
	mu       sync.Mutex
	capacity int // 0 means unlimited
	handles  map[string]*handle
	results  map[string]*domain.ExecutionResult
}

// NewStore creates an empty store. capacity bounds the number of concurrent
// in-flight executions; zero disables the bound.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		handles:  make(map[string]*handle),
		results:  make(map[string]*domain.ExecutionResult),
	}
}

// Insert registers a newly launched execution. It enforces the concurrency
// ceiling and rejects duplicate ids.
func (s *Store) Insert(executionID string, agentType domain.AgentType, cancel context.CancelFunc, done chan struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && len(s.handles) >= s.capacity {
		return fmt.Errorf("%w: limit %d", domain.ErrTooManyExecutions, s.capacity)
	}
	if _, ok := s.handles[executionID]; ok {
		return fmt.Errorf("execution %s already tracked", executionID)
	}

	s.handles[executionID] = &handle{
		cancel:    cancel,
		done:      done,
		agentType: agentType,
		startedAt: time.Now(),
	}
	metrics.ActiveExecutions.Inc()
	return nil
}

// Complete stores the terminal result and drops the in-flight handle in one
// critical section, so a concurrent Cancel either sees the live handle or the
// finished result, never neither.
func (s *Store) Complete(executionID string, result *domain.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[executionID] = result
	if _, ok := s.handles[executionID]; ok {
		delete(s.handles, executionID)
		metrics.ActiveExecutions.Dec()
	}
}

// EnsureCancelled marks the stored result cancelled, synthesizing a minimal
// one when the run never produced a result. Results that already reached
// completed or failed after the run observably finished are left untouched.
func (s *Store) EnsureCancelled(executionID string, agentType domain.AgentType, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.results[executionID]; ok {
		if !res.Status.Terminal() {
			res.Status = domain.ExecutionStatusCancelled
			res.Finalize(time.Now())
		}
		return
	}

	res := &domain.ExecutionResult{
		ExecutionID: executionID,
		AgentType:   agentType,
		Status:      domain.ExecutionStatusCancelled,
		StartTime:   startedAt,
	}
	res.Finalize(time.Now())
	s.results[executionID] = res
}

// Handle returns the in-flight handle for the execution, if any.
func (s *Store) Handle(executionID string) (*handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[executionID]
	return h, ok
}

// Result returns the stored terminal result for the execution, if any.
func (s *Store) Result(executionID string) (*domain.ExecutionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[executionID]
	return res, ok
}

// Status reports the lifecycle state of the execution: running while a live
// handle exists, otherwise the terminal status from the stored result.
func (s *Store) Status(executionID string) (domain.ExecutionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[executionID]; ok {
		return domain.ExecutionStatusRunning, true
	}
	if res, ok := s.results[executionID]; ok {
		return res.Status, true
	}
	return "", false
}

// Results returns a snapshot of every stored terminal result.
func (s *Store) Results() []*domain.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ExecutionResult, 0, len(s.results))
	for _, res := range s.results {
		out = append(out, res)
	}
	return out
}

// ActiveCount returns the number of in-flight executions.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// ActiveHandles snapshots the in-flight executions for shutdown.
func (s *Store) ActiveHandles() map[string]*handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*handle, len(s.handles))
	for id, h := range s.handles {
		out[id] = h
	}
	return out
}
