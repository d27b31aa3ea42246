// internal/api/http/result_handler.go
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"qualityforce/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResultHandler serves the /api/results/ routes backed by the persistent
// repository.
type ResultHandler struct {
	repo   domain.ExecutionRepository
	logger *slog.Logger
	tracer trace.Tracer
}

func NewResultHandler(repo domain.ExecutionRepository, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{
		repo:   repo,
		logger: logger.With("component", "result-handler"),
		tracer: otel.Tracer("qualityforce-api"),
	}
}

// RegisterRoutes registers stored-result routes on the mux.
func (h *ResultHandler) RegisterRoutes(mux *http.ServeMux) {
	pattern := func(r *http.Request) string {
		parts := pathParts(r.URL.Path)
		switch {
		case len(parts) < 3:
			return "/api/results/"
		case parts[2] == "stats":
			return "/api/results/stats/storage"
		case len(parts) > 4 && parts[3] == "evidence":
			return "/api/results/{id}/evidence/{evidenceID}"
		case len(parts) > 3:
			return "/api/results/{id}/" + parts[3]
		}
		return "/api/results/{id}"
	}
	mux.Handle("/api/results/", instrument(h.tracer, pattern, http.HandlerFunc(h.handleResults)))
}

// handleResults dispatches on the path below /api/results/.
func (h *ResultHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "results" {
		http.NotFound(w, r)
		return
	}

	var id, action, sub string
	if len(parts) > 2 {
		id = parts[2]
	}
	if len(parts) > 3 {
		action = parts[3]
	}
	if len(parts) > 4 {
		sub = parts[4]
	}

	switch r.Method {
	case http.MethodGet:
		switch {
		case id == "" && action == "":
			h.handleListResults(w, r)
		case id == "stats" && action == "storage":
			h.handleStorageStats(w, r)
		case id != "" && action == "":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return result })
		case id != "" && action == "test-cases":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return result.TestCases })
		case id != "" && action == "rca":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return result.RootCauseAnalyses })
		case id != "" && action == "recommendations":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return result.Recommendations })
		case id != "" && action == "summary":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return NewResultSummary(result) })
		case id != "" && action == "evidence" && sub == "":
			h.withResult(w, r, id, func(result *domain.ExecutionResult) any { return result.Evidences })
		case id != "" && action == "evidence" && sub != "":
			h.handleGetEvidence(w, r, id, sub)
		default:
			http.NotFound(w, r)
		}
	case http.MethodDelete:
		if id != "" && action == "" {
			h.handleDeleteResult(w, r, id)
			return
		}
		writeError(w, http.StatusBadRequest, "Execution id is required for deletion")
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleListResults lists every stored execution id (GET /api/results/).
func (h *ResultHandler) handleListResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ListStoredResults")
	defer span.End()

	ids, err := h.repo.ListIDs(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to list stored results", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	span.SetAttributes(attribute.Int("results.count", len(ids)))
	writeJSON(w, http.StatusOK, map[string]any{"execution_ids": ids, "count": len(ids)})
}

// withResult loads a stored result and responds with a projection of it.
func (h *ResultHandler) withResult(w http.ResponseWriter, r *http.Request, id string, project func(*domain.ExecutionResult) any) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetStoredResult")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	result, err := h.repo.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}
		span.RecordError(err)
		h.logger.Error("failed to load stored result", "execution_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, project(result))
}

// handleGetEvidence streams one evidence blob
// (GET /api/results/{id}/evidence/{evidenceID}).
func (h *ResultHandler) handleGetEvidence(w http.ResponseWriter, r *http.Request, id, evidenceID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetEvidence")
	defer span.End()
	span.SetAttributes(
		attribute.String("execution.id", id),
		attribute.String("evidence.id", evidenceID),
	)

	result, err := h.repo.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var evidence *domain.Evidence
	for i := range result.Evidences {
		if result.Evidences[i].EvidenceID == evidenceID {
			evidence = &result.Evidences[i]
			break
		}
	}
	if evidence == nil {
		writeError(w, http.StatusNotFound, "Evidence not found")
		return
	}

	content, err := h.repo.LoadEvidence(ctx, evidence.FilePath)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "Evidence content not found")
			return
		}
		span.RecordError(err)
		h.logger.Error("failed to load evidence", "evidence_id", evidenceID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

// handleDeleteResult removes a stored result (DELETE /api/results/{id}).
func (h *ResultHandler) handleDeleteResult(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.DeleteStoredResult")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	deleted, err := h.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to delete stored result", "execution_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Result not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"execution_id": id, "deleted": true})
}

// handleStorageStats reports repository statistics
// (GET /api/results/stats/storage).
func (h *ResultHandler) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.StorageStats")
	defer span.End()

	stats, err := h.repo.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to compute storage stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
