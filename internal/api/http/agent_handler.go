// internal/api/http/agent_handler.go
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"qualityforce/internal/domain"
	"qualityforce/internal/registry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AgentHandler serves the /api/agents/ routes.
type AgentHandler struct {
	registry *registry.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewAgentHandler(reg *registry.Registry, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		registry: reg,
		logger:   logger.With("component", "agent-handler"),
		tracer:   otel.Tracer("qualityforce-api"),
	}
}

// RegisterRoutes registers agent catalog routes on the mux.
func (h *AgentHandler) RegisterRoutes(mux *http.ServeMux) {
	pattern := func(r *http.Request) string {
		if parts := pathParts(r.URL.Path); len(parts) > 2 {
			return "/api/agents/{type}"
		}
		return "/api/agents/"
	}
	mux.Handle("/api/agents/", instrument(h.tracer, pattern, http.HandlerFunc(h.handleAgents)))
}

func (h *AgentHandler) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := pathParts(r.URL.Path)
	if len(parts) > 2 {
		h.handleGetAgent(w, r, parts[2])
		return
	}
	h.handleListAgents(w, r)
}

// handleListAgents lists the full agent catalog (GET /api/agents/).
func (h *AgentHandler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.ListAgents")
	defer span.End()

	agents := h.registry.List()
	span.SetAttributes(attribute.Int("agents.count", len(agents)))
	writeJSON(w, http.StatusOK, agents)
}

// handleGetAgent returns one agent's metadata (GET /api/agents/{type}).
func (h *AgentHandler) handleGetAgent(w http.ResponseWriter, r *http.Request, agentType string) {
	_, span := h.tracer.Start(r.Context(), "handler.GetAgent")
	defer span.End()
	span.SetAttributes(attribute.String("agent.type", agentType))

	metadata, err := h.registry.MetadataFor(domain.AgentType(agentType))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAgentType) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		span.RecordError(err)
		h.logger.Error("failed to look up agent", "agent_type", agentType, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, metadata)
}
