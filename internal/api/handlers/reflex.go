package handlers

import (
	"net/http"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"go.uber.org/zap"
)

type ReflexHandler struct {
	engine *service.ReflexEngine
	agents kernelResolver
	logger *zap.Logger
}

func NewReflexHandler(engine *service.ReflexEngine, agents kernelResolver, logger *zap.Logger) *ReflexHandler {
	return &ReflexHandler{engine: engine, agents: agents, logger: logger}
}

type reflexResponse struct {
	KernelVersion string                 `json:"kernel_version"`
	Triggers      []domain.ReflexTrigger `json:"triggers"`
}

// Evaluate is read-only; calling it twice on unchanged data returns the
// same triggers.
func (h *ReflexHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	subj, kernel, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	triggers, err := h.engine.Evaluate(r.Context(), kernel, subj)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reflexResponse{KernelVersion: kernel.Version, Triggers: triggers})
}
