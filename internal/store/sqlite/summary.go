package sqlite

import (
	"context"
	"database/sql"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/google/uuid"
)

// SummaryStore keeps embeddings as little-endian float32 blobs.
type SummaryStore struct {
	db *sql.DB
}

func (s *SummaryStore) Create(ctx context.Context, sum *domain.Summary) error {
	id := uuid.New()
	nanos, createdAt := stamp(sum.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cognitive_summaries (id, tenant_id, user_id, agent_id, session_ref, kind, summary_text, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), sum.TenantID, sum.UserID, sum.AgentID, sum.SessionRef, sum.Kind, sum.Text,
		encodeVector(sum.Embedding), nanos,
	)
	if err != nil {
		return err
	}
	sum.ID, sum.CreatedAt = id, createdAt
	return nil
}

func (s *SummaryStore) ListBySubject(ctx context.Context, subj domain.Subject, limit int) ([]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, user_id, agent_id, session_ref, kind, summary_text, embedding, created_at
		 FROM cognitive_summaries
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
		subj.TenantID, subj.UserID, subj.AgentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		var (
			sum       domain.Summary
			id        string
			embedding []byte
			nanos     int64
		)
		if err := rows.Scan(&id, &sum.TenantID, &sum.UserID, &sum.AgentID, &sum.SessionRef,
			&sum.Kind, &sum.Text, &embedding, &nanos); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		sum.Embedding = decodeVector(embedding)
		sum.CreatedAt = fromNanos(nanos)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
