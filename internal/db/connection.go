// Package db builds the PostgreSQL connection pool used by the database-backed stores.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/issue-auditor/internal/config"
)

const (
	defaultMaxConns        = 25
	defaultMinConns        = 2
	defaultConnMaxLifetime = 5 * time.Minute

	// DefaultConnectTimeout bounds how long NewPool waits for the database to accept connections
	DefaultConnectTimeout = 30 * time.Second
)

// PoolOption configures NewPool
type PoolOption func(*poolOptions)

type poolOptions struct {
	connectTimeout time.Duration
}

// WithConnectTimeout overrides DefaultConnectTimeout
func WithConnectTimeout(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.connectTimeout = d
	}
}

// NewPool creates a connection pool from cfg and waits, with exponential backoff,
// until the database answers a ping. This only covers process startup while the
// database container is still coming up.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, opts ...PoolOption) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	o := &poolOptions{connectTimeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(o)
	}

	connStr, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = defaultMinConns
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns
	}
	poolConfig.MaxConnLifetime = defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connMaxLifetime: %w", err)
		}
		poolConfig.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := waitForDatabase(ctx, pool, o.connectTimeout); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("Database connection pool created",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return pool, nil
}

// Pinger is the subset of pgxpool.Pool needed to probe connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

func waitForDatabase(ctx context.Context, db Pinger, timeout time.Duration) error {
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			return struct{}{}, db.Ping(ctx)
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Database not reachable yet", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
