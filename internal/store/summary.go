package store

import (
	"context"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// SummaryStore is the long-term memory side of the summary sink. Summaries
// carry an optional embedding for later semantic recall.
type SummaryStore struct {
	db *pgxpool.Pool
}

func NewSummaryStore(db *pgxpool.Pool) *SummaryStore {
	return &SummaryStore{db: db}
}

func (s *SummaryStore) Create(ctx context.Context, sum *domain.Summary) error {
	var embedding *pgvector.Vector
	if len(sum.Embedding) > 0 {
		v := pgvector.NewVector(sum.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO cognitive_summaries (tenant_id, user_id, agent_id, session_ref, kind, summary_text, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		sum.TenantID, sum.UserID, sum.AgentID, sum.SessionRef, sum.Kind, sum.Text, embedding,
	).Scan(&sum.ID, &sum.CreatedAt)
}

func (s *SummaryStore) ListBySubject(ctx context.Context, subj domain.Subject, limit int) ([]domain.Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, user_id, agent_id, session_ref, kind, summary_text, embedding, created_at
		 FROM cognitive_summaries
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3
		 ORDER BY created_at DESC
		 LIMIT $4`,
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
			embedding *pgvector.Vector
		)
		if err := rows.Scan(&sum.ID, &sum.TenantID, &sum.UserID, &sum.AgentID, &sum.SessionRef,
			&sum.Kind, &sum.Text, &embedding, &sum.CreatedAt); err != nil {
			return nil, err
		}
		if embedding != nil {
			sum.Embedding = embedding.Slice()
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
