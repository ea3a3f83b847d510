package handlers

import (
	"net/http"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"go.uber.org/zap"
)

type GoalHandler struct {
	svc    *service.GoalService
	agents kernelResolver
	logger *zap.Logger
}

func NewGoalHandler(svc *service.GoalService, agents kernelResolver, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{svc: svc, agents: agents, logger: logger}
}

func (h *GoalHandler) Record(w http.ResponseWriter, r *http.Request) {
	subj, kernel, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	var in domain.GoalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	g, err := h.svc.Record(r.Context(), kernel, subj, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// ListActive returns the newest assessment of every goal.
func (h *GoalHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	goals, err := h.svc.ListActive(r.Context(), subj)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(goals))
}

func (h *GoalHandler) History(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	rows, err := h.svc.History(r.Context(), subj, r.URL.Query().Get("goal_text"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(rows))
}
