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

type AgentStore struct {
	db *sql.DB
}

func (s *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	var metadata any
	if a.Metadata != nil {
		raw, err := encodeJSON(a.Metadata)
		if err != nil {
			return err
		}
		metadata = raw
	}
	id := uuid.New()
	nanos, createdAt := stamp(time.Time{})
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, tenant_id, external_id, name, kernel_version, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), a.TenantID, a.ExternalID, a.Name, a.KernelVersion, metadata, nanos,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	a.ID, a.CreatedAt = id, createdAt
	return nil
}

func (s *AgentStore) GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Agent, error) {
	var (
		a        domain.Agent
		id       string
		metadata sql.NullString
		nanos    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, external_id, name, kernel_version, metadata, created_at
		 FROM agents WHERE tenant_id = ? AND external_id = ?`,
		tenantID, externalID,
	).Scan(&id, &a.TenantID, &a.ExternalID, &a.Name, &a.KernelVersion, &metadata, &nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadata, &a.Metadata); err != nil {
		return nil, err
	}
	a.CreatedAt = fromNanos(nanos)
	return &a, nil
}
