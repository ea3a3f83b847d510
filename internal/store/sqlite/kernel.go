package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
)

type KernelStore struct {
	db *sql.DB
}

func (s *KernelStore) Create(ctx context.Context, k *domain.CognitiveKernelConfig) error {
	cfg, err := encodeJSON(k)
	if err != nil {
		return err
	}
	nanos, createdAt := stamp(k.CreatedAt)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kernel_configs (version, config, created_at) VALUES (?, ?, ?)`,
		k.Version, cfg, nanos,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	k.CreatedAt = createdAt
	return nil
}

func (s *KernelStore) GetByVersion(ctx context.Context, version string) (*domain.CognitiveKernelConfig, error) {
	k, err := scanKernel(s.db.QueryRowContext(ctx,
		`SELECT config, created_at FROM kernel_configs WHERE version = ?`, version,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return k, nil
}

func (s *KernelStore) List(ctx context.Context) ([]domain.CognitiveKernelConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config, created_at FROM kernel_configs ORDER BY created_at, version`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kernels []domain.CognitiveKernelConfig
	for rows.Next() {
		k, err := scanKernel(rows)
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, *k)
	}
	return kernels, rows.Err()
}

func scanKernel(row scanner) (*domain.CognitiveKernelConfig, error) {
	var (
		raw   sql.NullString
		nanos int64
		k     domain.CognitiveKernelConfig
	)
	if err := row.Scan(&raw, &nanos); err != nil {
		return nil, err
	}
	if err := decodeJSON(raw, &k); err != nil {
		return nil, err
	}
	k.CreatedAt = fromNanos(nanos)
	return &k, nil
}
