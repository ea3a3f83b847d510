package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"go.uber.org/zap"
)

const (
	defaultSeriesLimit = 100
	maxSeriesLimit     = 1000
)

// MetricInput is one observation to record.
type MetricInput struct {
	Type        domain.MetricType `json:"metric_type"`
	Value       float64           `json:"metric_value"`
	ContextData map[string]any    `json:"context_data,omitempty"`
	// ThresholdOverride replaces the kernel threshold for this observation.
	ThresholdOverride *float64  `json:"threshold_override,omitempty"`
	MeasuredAt        time.Time `json:"measured_at,omitzero"`
}

// MetricRecorder is what the goal and graph services need to emit derived
// metrics.
type MetricRecorder interface {
	Record(ctx context.Context, kernel domain.CognitiveKernelConfig, s domain.Subject, in MetricInput) (*domain.CognitiveMetric, error)
}

// MetricService appends metric observations and classifies each one against
// the kernel thresholds. It detects; acting on a breach is the reflex
// engine's job.
type MetricService struct {
	store  domain.MetricStore
	logger *zap.Logger
}

func NewMetricService(s domain.MetricStore, logger *zap.Logger) *MetricService {
	return &MetricService{store: s, logger: logger}
}

// Classify resolves the active threshold and whether value reaches it. The
// returned threshold is nil when the metric type has none and no override
// was given.
func Classify(cfg domain.ReflexTriggerConfig, in MetricInput) (threshold *float64, exceeded bool, err error) {
	if !domain.ValidMetricType(string(in.Type)) {
		return nil, false, domain.Invalid("metric_type", "unknown metric type %q", in.Type)
	}
	if math.IsNaN(in.Value) || math.IsInf(in.Value, 0) {
		return nil, false, domain.Invalid("metric_value", "must be finite")
	}
	if in.Type == domain.MetricRepeatedFailure && (in.Value < 0 || in.Value != math.Trunc(in.Value)) {
		return nil, false, domain.Invalid("metric_value", "repeated_failure must be a non-negative integer count, got %v", in.Value)
	}

	var active float64
	switch {
	case in.ThresholdOverride != nil:
		active = *in.ThresholdOverride
		if math.IsNaN(active) || math.IsInf(active, 0) {
			return nil, false, domain.Invalid("threshold_override", "must be finite")
		}
	default:
		t, ok := domain.ThresholdFor(cfg, in.Type)
		if !ok {
			return nil, false, nil
		}
		active = t
	}

	if in.Type == domain.MetricRepeatedFailure {
		// Counts are whole numbers, so a fractional threshold rounds up.
		return &active, in.Value >= math.Ceil(active), nil
	}
	return &active, in.Value >= active, nil
}

// Record classifies and appends one observation. Nothing is written when the
// input is invalid.
func (s *MetricService) Record(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject, in MetricInput) (*domain.CognitiveMetric, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	threshold, exceeded, err := Classify(kernel.ReflexTriggers, in)
	if err != nil {
		return nil, err
	}

	m := &domain.CognitiveMetric{
		TenantID:      subj.TenantID,
		UserID:        subj.UserID,
		AgentID:       subj.AgentID,
		Type:          in.Type,
		Value:         in.Value,
		Threshold:     threshold,
		Exceeded:      exceeded,
		ContextData:   in.ContextData,
		KernelVersion: kernel.Version,
		MeasuredAt:    in.MeasuredAt,
	}
	if exceeded {
		m.SuggestedAction, _ = domain.SuggestedAction(in.Type)
	}

	if err := s.store.Create(ctx, m); err != nil {
		return nil, domain.NewStorageError("create metric", err)
	}

	if exceeded {
		s.logger.Info("metric threshold exceeded",
			zap.String("agent_id", subj.AgentID),
			zap.String("user_id", subj.UserID),
			zap.String("metric_type", string(m.Type)),
			zap.Float64("value", m.Value),
			zap.Float64("threshold", *threshold),
		)
	}
	return m, nil
}

func (s *MetricService) Latest(ctx context.Context, subj domain.Subject, t domain.MetricType) (*domain.CognitiveMetric, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	if !domain.ValidMetricType(string(t)) {
		return nil, domain.Invalid("metric_type", "unknown metric type %q", t)
	}
	m, err := s.store.GetLatestByType(ctx, subj, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, domain.NewStorageError("get latest metric", err)
	}
	return m, nil
}

// Series returns observations of one type measured at or after since, newest
// first. A non-positive limit means the default.
func (s *MetricService) Series(ctx context.Context, subj domain.Subject, t domain.MetricType, since time.Time, limit int) ([]domain.CognitiveMetric, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	if !domain.ValidMetricType(string(t)) {
		return nil, domain.Invalid("metric_type", "unknown metric type %q", t)
	}
	if limit <= 0 {
		limit = defaultSeriesLimit
	}
	limit = min(limit, maxSeriesLimit)

	metrics, err := s.store.ListByType(ctx, subj, t, since, limit)
	if err != nil {
		return nil, domain.NewStorageError("list metrics", err)
	}
	if metrics == nil {
		metrics = []domain.CognitiveMetric{}
	}
	return metrics, nil
}
