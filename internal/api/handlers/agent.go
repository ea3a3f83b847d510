package handlers

import (
	"net/http"

	"github.com/DTSP-AI/numen-ai-sub001/internal/api/middleware"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AgentHandler struct {
	svc    *service.AgentService
	logger *zap.Logger
}

func NewAgentHandler(svc *service.AgentService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{svc: svc, logger: logger}
}

type createAgentRequest struct {
	ExternalID    string         `json:"external_id"`
	Name          string         `json:"name"`
	KernelVersion string         `json:"kernel_version"`
	Metadata      map[string]any `json:"metadata"`
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	agent := &domain.Agent{
		TenantID:      middleware.TenantFromContext(r.Context()),
		ExternalID:    req.ExternalID,
		Name:          req.Name,
		KernelVersion: req.KernelVersion,
		Metadata:      req.Metadata,
	}
	if err := h.svc.Create(r.Context(), agent); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agent, err := h.svc.Get(r.Context(), middleware.TenantFromContext(r.Context()), chi.URLParam(r, "agentID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}
