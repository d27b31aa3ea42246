// internal/api/http/execution_handler.go
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"qualityforce/internal/domain"
	"qualityforce/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionHandler serves the /api/executions/ routes.
type ExecutionHandler struct {
	service  *usecase.ExecutionService
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewExecutionHandler creates the handler and registers the custom
// agenttype validation.
func NewExecutionHandler(service *usecase.ExecutionService, logger *slog.Logger) *ExecutionHandler {
	validate := validator.New()

	_ = validate.RegisterValidation("agenttype", func(fl validator.FieldLevel) bool {
		return domain.AgentType(fl.Field().String()).Validate() == nil
	})

	return &ExecutionHandler{
		service:  service,
		logger:   logger.With("component", "execution-handler"),
		validate: validate,
		tracer:   otel.Tracer("qualityforce-api"),
	}
}

// RegisterRoutes registers execution routes on the mux.
func (h *ExecutionHandler) RegisterRoutes(mux *http.ServeMux) {
	pattern := func(r *http.Request) string {
		parts := pathParts(r.URL.Path)
		if len(parts) < 3 {
			return "/api/executions/"
		}
		switch parts[2] {
		case "execute", "batch":
			return "/api/executions/" + parts[2]
		case "active":
			return "/api/executions/active/count"
		}
		if len(parts) > 3 {
			return "/api/executions/{id}/" + parts[3]
		}
		return "/api/executions/{id}"
	}
	mux.Handle("/api/executions/", instrument(h.tracer, pattern, http.HandlerFunc(h.handleExecutions)))
}

// handleExecutions dispatches on the path below /api/executions/.
func (h *ExecutionHandler) handleExecutions(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path)
	// e.g. /api/executions/{id}/status -> ["api", "executions", "{id}", "status"]
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "executions" {
		http.NotFound(w, r)
		return
	}

	var id, action string
	if len(parts) > 2 {
		id = parts[2]
	}
	if len(parts) > 3 {
		action = parts[3]
	}

	switch r.Method {
	case http.MethodPost:
		switch {
		case id == "execute" && action == "":
			h.handleExecute(w, r)
		case id == "batch" && action == "":
			h.handleBatch(w, r)
		case id != "" && action == "cancel":
			h.handleCancel(w, r, id)
		default:
			http.NotFound(w, r)
		}
	case http.MethodGet:
		switch {
		case id == "" && action == "":
			h.handleList(w, r)
		case id == "active" && action == "count":
			h.handleActiveCount(w, r)
		case id != "" && action == "status":
			h.handleStatus(w, r, id)
		case id != "" && action == "result":
			h.handleResult(w, r, id)
		default:
			http.NotFound(w, r)
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleExecute starts one agent execution (POST /api/executions/execute).
func (h *ExecutionHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Execute")
	defer span.End()

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		writeValidationError(w, err)
		return
	}

	agentType := domain.AgentType(req.AgentType)
	span.SetAttributes(attribute.String("agent.type", req.AgentType))

	executionID, err := h.service.Start(ctx, agentType, req.Inputs.ToDomain(), req.Config)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, domain.ErrUnknownAgentType):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrTooManyExecutions):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			h.logger.Error("failed to start execution", "agent_type", agentType, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ExecuteResponse{
		ExecutionID: executionID,
		AgentType:   req.AgentType,
		Status:      string(domain.ExecutionStatusRunning),
	})
}

// handleBatch starts a batch of executions (POST /api/executions/batch).
func (h *ExecutionHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ExecuteBatch")
	defer span.End()

	var req BatchExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		writeValidationError(w, err)
		return
	}
	span.SetAttributes(
		attribute.Int("batch.size", len(req.Executions)),
		attribute.Bool("batch.parallel", req.Parallel),
	)

	ids, err := h.service.StartBatch(ctx, req.ToDomain())
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrUnknownAgentType) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("batch execution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := BatchExecuteResponse{
		ExecutionIDs: make(map[string]string, len(ids)),
		Parallel:     req.Parallel,
	}
	for agentType, id := range ids {
		resp.ExecutionIDs[string(agentType)] = id
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// handleList summarizes every in-memory result (GET /api/executions/).
func (h *ExecutionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.ListExecutions")
	defer span.End()

	results := h.service.Results()
	summaries := make([]ResultSummary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, NewResultSummary(result))
	}
	span.SetAttributes(attribute.Int("executions.count", len(summaries)))
	writeJSON(w, http.StatusOK, summaries)
}

// handleStatus reports one execution's state (GET /api/executions/{id}/status).
func (h *ExecutionHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	_, span := h.tracer.Start(r.Context(), "handler.GetExecutionStatus")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	status, ok := h.service.Status(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Execution not found")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{ExecutionID: id, Status: string(status)})
}

// handleResult returns one execution's result (GET /api/executions/{id}/result).
func (h *ExecutionHandler) handleResult(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetExecutionResult")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	result, err := h.service.Result(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "Result not available")
			return
		}
		span.RecordError(err)
		h.logger.Error("failed to load result", "execution_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancel cancels a running execution (POST /api/executions/{id}/cancel).
func (h *ExecutionHandler) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.CancelExecution")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	cancelled := h.service.Cancel(ctx, id)
	writeJSON(w, http.StatusOK, CancelResponse{ExecutionID: id, Cancelled: cancelled})
}

// handleActiveCount reports the running count (GET /api/executions/active/count).
func (h *ExecutionHandler) handleActiveCount(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.ActiveCount")
	defer span.End()

	writeJSON(w, http.StatusOK, ActiveCountResponse{ActiveExecutions: h.service.ActiveCount()})
}

// pathParts splits a request path into its non-empty segments.
func pathParts(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
