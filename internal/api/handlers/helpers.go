package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/api/middleware"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Storage and unexpected failures are logged and hidden from the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrReferential):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrKernelVersionExists), errors.Is(err, service.ErrAgentConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGoalAssessmentDisabled), errors.Is(err, service.ErrBeliefMappingDisabled):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected so typos in scale names do not pass silently.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// kernelResolver looks up the kernel an agent runs with.
type kernelResolver interface {
	ResolveKernel(ctx context.Context, tenantID, agentID string) (domain.CognitiveKernelConfig, error)
}

// subjectFromRequest builds the subject from the tenant header and the
// {agentID} and {userID} path parameters.
func subjectFromRequest(r *http.Request) domain.Subject {
	return domain.Subject{
		TenantID: middleware.TenantFromContext(r.Context()),
		UserID:   strings.TrimSpace(chi.URLParam(r, "userID")),
		AgentID:  strings.TrimSpace(chi.URLParam(r, "agentID")),
	}
}

// scope resolves the subject and the agent's kernel, writing the error
// response itself when either fails.
func scope(w http.ResponseWriter, r *http.Request, logger *zap.Logger, agents kernelResolver) (domain.Subject, domain.CognitiveKernelConfig, bool) {
	subj := subjectFromRequest(r)
	if err := subj.Validate(); err != nil {
		writeServiceError(w, r, logger, err)
		return subj, domain.CognitiveKernelConfig{}, false
	}
	kernel, err := agents.ResolveKernel(r.Context(), subj.TenantID, subj.AgentID)
	if err != nil {
		writeServiceError(w, r, logger, err)
		return subj, domain.CognitiveKernelConfig{}, false
	}
	return subj, kernel, true
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}
