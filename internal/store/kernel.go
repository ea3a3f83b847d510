package store

import (
	"context"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type KernelStore struct {
	db *pgxpool.Pool
}

func NewKernelStore(db *pgxpool.Pool) *KernelStore {
	return &KernelStore{db: db}
}

// Create inserts a new kernel version. Existing versions are never updated.
func (s *KernelStore) Create(ctx context.Context, k *domain.CognitiveKernelConfig) error {
	cfg, err := marshalJSON(k)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO kernel_configs (version, config)
		 VALUES ($1, $2)
		 RETURNING created_at`,
		k.Version, cfg,
	).Scan(&k.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *KernelStore) GetByVersion(ctx context.Context, version string) (*domain.CognitiveKernelConfig, error) {
	k, err := scanKernel(s.db.QueryRow(ctx,
		`SELECT config, created_at FROM kernel_configs WHERE version = $1`,
		version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return k, nil
}

func (s *KernelStore) List(ctx context.Context) ([]domain.CognitiveKernelConfig, error) {
	rows, err := s.db.Query(ctx,
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
		raw []byte
		k   domain.CognitiveKernelConfig
	)
	if err := row.Scan(&raw, &k.CreatedAt); err != nil {
		return nil, err
	}
	createdAt := k.CreatedAt
	if err := unmarshalJSON(raw, &k); err != nil {
		return nil, err
	}
	k.CreatedAt = createdAt
	return &k, nil
}
