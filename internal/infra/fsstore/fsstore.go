// internal/infra/fsstore/fsstore.go
// Package fsstore persists execution results and evidence as plain files.
// Each execution gets its own directory holding the full result plus
// convenience extracts (test cases, analyses, recommendations, log).
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qualityforce/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	resultFile          = "result.json"
	testCasesFile       = "test_cases.json"
	rcaFile             = "rca.json"
	recommendationsFile = "recommendations.json"
	executionLogFile    = "execution.log"
)

type fsRepository struct {
	resultsDir  string
	evidenceDir string
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New creates a filesystem-backed repository rooted at the two directories,
// creating them if needed.
func New(resultsDir, evidenceDir string, logger *slog.Logger) (domain.ExecutionRepository, error) {
	for _, dir := range []string{resultsDir, evidenceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &fsRepository{
		resultsDir:  resultsDir,
		evidenceDir: evidenceDir,
		logger:      logger.With("component", "fsstore"),
		tracer:      otel.Tracer("qualityforce-fsstore"),
	}, nil
}

func (r *fsRepository) executionDir(executionID string) (string, error) {
	if executionID == "" || executionID != filepath.Base(executionID) {
		return "", fmt.Errorf("invalid execution id %q", executionID)
	}
	return filepath.Join(r.resultsDir, executionID), nil
}

// Save writes the terminal result and its extracts under one directory.
func (r *fsRepository) Save(ctx context.Context, result *domain.ExecutionResult) (string, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.SaveResult")
	defer span.End()
	span.SetAttributes(
		attribute.String("execution.id", result.ExecutionID),
		attribute.String("agent.type", string(result.AgentType)),
	)

	if err := result.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid execution result")
		return "", fmt.Errorf("refusing to save invalid result: %w", err)
	}

	dir, err := r.executionDir(result.ExecutionID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create execution directory")
		return "", fmt.Errorf("failed to create execution directory: %w", err)
	}

	files := map[string]any{
		resultFile:          result,
		testCasesFile:       result.TestCases,
		rcaFile:             result.RootCauseAnalyses,
		recommendationsFile: result.Recommendations,
	}
	for name, payload := range files {
		if err := writeJSON(filepath.Join(dir, name), payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write result file")
			return "", fmt.Errorf("failed to write %s for execution %s: %w", name, result.ExecutionID, err)
		}
	}
	logBody := strings.Join(result.Logs, "\n")
	if err := os.WriteFile(filepath.Join(dir, executionLogFile), []byte(logBody), 0o644); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write execution log")
		return "", fmt.Errorf("failed to write execution log for %s: %w", result.ExecutionID, err)
	}

	r.logger.Info("saved execution result", "execution_id", result.ExecutionID, "status", result.Status)
	return dir, nil
}

// Load reads a stored result back from its directory.
func (r *fsRepository) Load(ctx context.Context, executionID string) (*domain.ExecutionResult, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.LoadResult")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", executionID))

	dir, err := r.executionDir(executionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, resultFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrResultNotFound, executionID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read result file")
		return nil, fmt.Errorf("failed to read result for %s: %w", executionID, err)
	}

	var result domain.ExecutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal result")
		return nil, fmt.Errorf("failed to unmarshal result for %s: %w", executionID, err)
	}
	return &result, nil
}

// ListIDs returns every execution directory that holds a result file.
func (r *fsRepository) ListIDs(ctx context.Context) ([]string, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.ListResults")
	defer span.End()

	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read results directory")
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.resultsDir, entry.Name(), resultFile)); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	span.SetAttributes(attribute.Int("results.count", len(ids)))
	return ids, nil
}

// Delete removes a stored result directory.
func (r *fsRepository) Delete(ctx context.Context, executionID string) (bool, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.DeleteResult")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", executionID))

	dir, err := r.executionDir(executionID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove execution directory")
		return false, fmt.Errorf("failed to delete result %s: %w", executionID, err)
	}
	r.logger.Info("deleted execution result", "execution_id", executionID)
	return true, nil
}

// SaveEvidence stores one evidence blob under its relative file path.
func (r *fsRepository) SaveEvidence(ctx context.Context, evidence *domain.Evidence, content []byte) (string, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.SaveEvidence")
	defer span.End()
	span.SetAttributes(
		attribute.String("evidence.id", evidence.EvidenceID),
		attribute.String("evidence.type", evidence.EvidenceType),
	)

	path, err := r.evidencePath(evidence.FilePath)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create evidence directory")
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write evidence file")
		return "", fmt.Errorf("failed to write evidence %s: %w", evidence.EvidenceID, err)
	}
	return path, nil
}

// LoadEvidence reads one evidence blob by its relative file path.
func (r *fsRepository) LoadEvidence(ctx context.Context, filePath string) ([]byte, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.LoadEvidence")
	defer span.End()
	span.SetAttributes(attribute.String("evidence.path", filePath))

	path, err := r.evidencePath(filePath)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: evidence %s", domain.ErrResultNotFound, filePath)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read evidence file")
		return nil, fmt.Errorf("failed to read evidence %s: %w", filePath, err)
	}
	return data, nil
}

// Stats walks both storage roots and reports counts and sizes.
func (r *fsRepository) Stats(ctx context.Context) (*domain.StorageStats, error) {
	_, span := r.tracer.Start(ctx, "repo.fs.Stats")
	defer span.End()

	ids, err := r.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	resultsSize, err := dirSize(r.resultsDir)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to size results directory: %w", err)
	}
	evidenceSize, err := dirSize(r.evidenceDir)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to size evidence directory: %w", err)
	}
	return &domain.StorageStats{
		TotalExecutions:   len(ids),
		ResultsSizeBytes:  resultsSize,
		EvidenceSizeBytes: evidenceSize,
	}, nil
}

// evidencePath resolves a relative evidence path and rejects traversal
// outside the evidence root.
func (r *fsRepository) evidencePath(filePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(filePath))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid evidence path %q", filePath)
	}
	return filepath.Join(r.evidenceDir, cleaned), nil
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
