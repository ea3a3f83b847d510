// Package backend opens the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/DTSP-AI/numen-ai-sub001/internal/config"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options overrides configuration for one open call. Zero fields fall back
// to the config getters.
type Options struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = config.StorageDriver()
	}
	if o.DatabaseURL == "" {
		o.DatabaseURL = config.DatabaseURL()
	}
	if o.SQLitePath == "" {
		o.SQLitePath = config.SQLitePath()
	}
	return o
}

// Open connects to the configured backend and verifies it with a ping.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (domain.Stores, error) {
	opts = opts.withDefaults()

	switch opts.Driver {
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return domain.Stores{}, fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return domain.Stores{}, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return domain.Stores{}, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("connected to database", zap.String("driver", DriverPostgres))
		return store.NewStores(pool), nil

	case DriverSQLite:
		db, err := sqlite.Open(ctx, opts.SQLitePath)
		if err != nil {
			return domain.Stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("opened database", zap.String("driver", DriverSQLite), zap.String("path", opts.SQLitePath))
		return sqlite.NewStores(db), nil

	default:
		return domain.Stores{}, fmt.Errorf("unknown storage driver: %s (valid options: postgres, sqlite)", opts.Driver)
	}
}
