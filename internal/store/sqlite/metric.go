package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/google/uuid"
)

const metricColumns = `id, tenant_id, user_id, agent_id, metric_type, metric_value, threshold_value,
	threshold_exceeded, suggested_action, context_data, kernel_version, measured_at`

type MetricStore struct {
	db *sql.DB
}

func (s *MetricStore) Create(ctx context.Context, m *domain.CognitiveMetric) error {
	var contextData any
	if m.ContextData != nil {
		raw, err := encodeJSON(m.ContextData)
		if err != nil {
			return err
		}
		contextData = raw
	}
	id := uuid.New()
	nanos, measuredAt := stamp(m.MeasuredAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cognitive_metrics (`+metricColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), m.TenantID, m.UserID, m.AgentID, m.Type, m.Value, m.Threshold,
		m.Exceeded, m.SuggestedAction, contextData, m.KernelVersion, nanos,
	)
	if err != nil {
		return err
	}
	m.ID, m.MeasuredAt = id, measuredAt
	return nil
}

func (s *MetricStore) GetLatestByType(ctx context.Context, subj domain.Subject, t domain.MetricType) (*domain.CognitiveMetric, error) {
	m, err := scanMetric(s.db.QueryRowContext(ctx,
		`SELECT `+metricColumns+`
		 FROM cognitive_metrics
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ? AND metric_type = ?
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID, t,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MetricStore) ListByType(ctx context.Context, subj domain.Subject, t domain.MetricType, since time.Time, limit int) ([]domain.CognitiveMetric, error) {
	var sinceNanos int64
	if !since.IsZero() {
		sinceNanos = since.UnixNano()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+metricColumns+`
		 FROM cognitive_metrics
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ? AND metric_type = ? AND measured_at >= ?
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT ?`,
		subj.TenantID, subj.UserID, subj.AgentID, t, sinceNanos, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []domain.CognitiveMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, *m)
	}
	return metrics, rows.Err()
}

func scanMetric(row scanner) (*domain.CognitiveMetric, error) {
	var (
		m           domain.CognitiveMetric
		id          string
		threshold   sql.NullFloat64
		contextData sql.NullString
		nanos       int64
	)
	err := row.Scan(&id, &m.TenantID, &m.UserID, &m.AgentID, &m.Type, &m.Value, &threshold,
		&m.Exceeded, &m.SuggestedAction, &contextData, &m.KernelVersion, &nanos)
	if err != nil {
		return nil, err
	}
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if threshold.Valid {
		m.Threshold = &threshold.Float64
	}
	if err := decodeJSON(contextData, &m.ContextData); err != nil {
		return nil, err
	}
	m.MeasuredAt = fromNanos(nanos)
	return &m, nil
}
