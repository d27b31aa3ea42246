// internal/domain/repository.go
package domain

import "context"

// StorageStats summarizes what the repository currently holds.
type StorageStats struct {
	TotalExecutions   int   `json:"total_executions"`
	ResultsSizeBytes  int64 `json:"results_size_bytes"`
	EvidenceSizeBytes int64 `json:"evidence_size_bytes"`
}

// ExecutionRepository persists terminal execution results and evidence blobs.
// The orchestrator never calls it directly; the surrounding service layer
// saves results after they reach a terminal state.
type ExecutionRepository interface {
	// Save persists a terminal result and returns its storage locator.
	Save(ctx context.Context, result *ExecutionResult) (string, error)
	// Load retrieves a stored result, or ErrResultNotFound.
	Load(ctx context.Context, executionID string) (*ExecutionResult, error)
	// ListIDs lists every stored execution id.
	ListIDs(ctx context.Context) ([]string, error)
	// Delete removes a stored result and its artifacts. Returns false when
	// nothing was stored under the id.
	Delete(ctx context.Context, executionID string) (bool, error)

	// SaveEvidence stores an evidence blob under its relative file path.
	SaveEvidence(ctx context.Context, evidence *Evidence, content []byte) (string, error)
	// LoadEvidence retrieves an evidence blob, or ErrResultNotFound.
	LoadEvidence(ctx context.Context, filePath string) ([]byte, error)

	// Stats reports repository-wide storage statistics.
	Stats(ctx context.Context) (*StorageStats, error)
}
