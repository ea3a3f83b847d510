package handlers

import (
	"net/http"

	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GraphHandler struct {
	svc    *service.BeliefGraphService
	agents kernelResolver
	logger *zap.Logger
}

func NewGraphHandler(svc *service.BeliefGraphService, agents kernelResolver, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{svc: svc, agents: agents, logger: logger}
}

func (h *GraphHandler) Build(w http.ResponseWriter, r *http.Request) {
	subj, kernel, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	var in service.GraphInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := h.svc.Build(r.Context(), kernel, subj, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GraphHandler) Extend(w http.ResponseWriter, r *http.Request) {
	subj, kernel, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	var in service.GraphInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := h.svc.Extend(r.Context(), kernel, subj, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GraphHandler) Latest(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	g, err := h.svc.Latest(r.Context(), subj)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GraphHandler) Get(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "graphID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid graph id")
		return
	}
	g, err := h.svc.Get(r.Context(), subj, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GraphHandler) Shift(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	shift, err := h.svc.Shift(r.Context(), subj)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}
