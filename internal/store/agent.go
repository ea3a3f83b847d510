package store

import (
	"context"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentStore struct {
	db *pgxpool.Pool
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{db: db}
}

func (s *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO agents (tenant_id, external_id, name, kernel_version, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.TenantID, a.ExternalID, a.Name, a.KernelVersion, a.Metadata,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *AgentStore) GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, external_id, name, kernel_version, metadata, created_at
		 FROM agents WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID,
	).Scan(&a.ID, &a.TenantID, &a.ExternalID, &a.Name, &a.KernelVersion, &a.Metadata, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
