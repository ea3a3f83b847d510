package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"go.uber.org/zap"
)

type MetricHandler struct {
	svc    *service.MetricService
	agents kernelResolver
	logger *zap.Logger
}

func NewMetricHandler(svc *service.MetricService, agents kernelResolver, logger *zap.Logger) *MetricHandler {
	return &MetricHandler{svc: svc, agents: agents, logger: logger}
}

func (h *MetricHandler) Record(w http.ResponseWriter, r *http.Request) {
	subj, kernel, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	var in service.MetricInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.svc.Record(r.Context(), kernel, subj, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Series lists observations of ?metric_type=, optionally bounded by
// ?since= (RFC 3339) and ?limit=.
func (h *MetricHandler) Series(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	q := r.URL.Query()

	t, ok := metricTypeParam(w, q.Get("metric_type"))
	if !ok {
		return
	}
	var since time.Time
	if s := q.Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since: must be RFC 3339")
			return
		}
		since = parsed
	}
	limit := 0
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	metrics, err := h.svc.Series(r.Context(), subj, t, since, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(metrics))
}

func (h *MetricHandler) Latest(w http.ResponseWriter, r *http.Request) {
	subj, _, ok := scope(w, r, h.logger, h.agents)
	if !ok {
		return
	}
	t, ok := metricTypeParam(w, r.URL.Query().Get("metric_type"))
	if !ok {
		return
	}
	m, err := h.svc.Latest(r.Context(), subj, t)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func metricTypeParam(w http.ResponseWriter, raw string) (domain.MetricType, bool) {
	if raw == "" {
		writeError(w, http.StatusBadRequest, "metric_type is required")
		return "", false
	}
	if !domain.ValidMetricType(raw) {
		writeError(w, http.StatusBadRequest, "unknown metric_type "+strconv.Quote(raw))
		return "", false
	}
	return domain.MetricType(raw), true
}
