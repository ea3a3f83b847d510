package handlers

import (
	"net/http"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type KernelHandler struct {
	svc    *service.KernelService
	logger *zap.Logger
}

func NewKernelHandler(svc *service.KernelService, logger *zap.Logger) *KernelHandler {
	return &KernelHandler{svc: svc, logger: logger}
}

func (h *KernelHandler) Create(w http.ResponseWriter, r *http.Request) {
	k := domain.KernelDocumentBase()
	if !decodeJSON(w, r, &k) {
		return
	}
	if err := h.svc.Create(r.Context(), &k); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

func (h *KernelHandler) List(w http.ResponseWriter, r *http.Request) {
	kernels, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(kernels))
}

func (h *KernelHandler) Get(w http.ResponseWriter, r *http.Request) {
	k, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}
