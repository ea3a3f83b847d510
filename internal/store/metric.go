package store

import (
	"context"
	"errors"
	"time"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const metricColumns = `id, tenant_id, user_id, agent_id, metric_type, metric_value, threshold_value,
	threshold_exceeded, suggested_action, context_data, kernel_version, measured_at`

// MetricStore is an append-only time series of cognitive metrics.
type MetricStore struct {
	db *pgxpool.Pool
}

func NewMetricStore(db *pgxpool.Pool) *MetricStore {
	return &MetricStore{db: db}
}

func (s *MetricStore) Create(ctx context.Context, m *domain.CognitiveMetric) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO cognitive_metrics (tenant_id, user_id, agent_id, metric_type, metric_value, threshold_value,
			threshold_exceeded, suggested_action, context_data, kernel_version, measured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
		 RETURNING id, measured_at`,
		m.TenantID, m.UserID, m.AgentID, m.Type, m.Value, m.Threshold,
		m.Exceeded, m.SuggestedAction, m.ContextData, m.KernelVersion, optionalTime(m.MeasuredAt),
	).Scan(&m.ID, &m.MeasuredAt)
}

func (s *MetricStore) GetLatestByType(ctx context.Context, subj domain.Subject, t domain.MetricType) (*domain.CognitiveMetric, error) {
	m, err := scanMetric(s.db.QueryRow(ctx,
		`SELECT `+metricColumns+`
		 FROM cognitive_metrics
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3 AND metric_type = $4
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID, t,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MetricStore) ListByType(ctx context.Context, subj domain.Subject, t domain.MetricType, since time.Time, limit int) ([]domain.CognitiveMetric, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+metricColumns+`
		 FROM cognitive_metrics
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3 AND metric_type = $4 AND measured_at >= $5
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT $6`,
		subj.TenantID, subj.UserID, subj.AgentID, t, since, limit,
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
	m := &domain.CognitiveMetric{}
	err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.AgentID, &m.Type, &m.Value, &m.Threshold,
		&m.Exceeded, &m.SuggestedAction, &m.ContextData, &m.KernelVersion, &m.MeasuredAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
