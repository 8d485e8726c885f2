package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/db"
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory use PostgreSQL for persistence.
type DatabaseFactory struct {
	pool *pgxpool.Pool

	// ownsPool is false when the pool was injected and is closed by its creator
	ownsPool bool
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*databaseFactoryOptions)

type databaseFactoryOptions struct {
	pool     *pgxpool.Pool
	poolOpts []db.PoolOption
}

// WithPool uses an existing connection pool instead of building one from the config.
// Cleanup leaves an injected pool open.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(o *databaseFactoryOptions) {
		o.pool = pool
	}
}

// WithPoolOptions passes options to the pool builder
func WithPoolOptions(opts ...db.PoolOption) DatabaseFactoryOption {
	return func(o *databaseFactoryOptions) {
		o.poolOpts = append(o.poolOpts, opts...)
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	o := &databaseFactoryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.pool != nil {
		return &DatabaseFactory{pool: o.pool}, nil
	}

	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database, o.poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{pool: pool, ownsPool: true}, nil
}

// CreateJobStore creates a database-backed job store
func (d *DatabaseFactory) CreateJobStore(_ context.Context) (jobs.Store, error) {
	slog.Debug("Creating database-backed job store")
	return jobs.NewDBStore(d.pool), nil
}

// CreateTracker creates a database-backed status tracker
func (d *DatabaseFactory) CreateTracker(_ context.Context) (status.Tracker, error) {
	slog.Debug("Creating database-backed status tracker")
	return status.NewDBTracker(d.pool), nil
}

// CreateDirectory creates a database-backed targets directory
func (d *DatabaseFactory) CreateDirectory(_ context.Context) (targets.Directory, error) {
	slog.Debug("Creating database-backed targets directory")
	return targets.NewDBDirectory(d.pool), nil
}

// CreateIssueStore creates a database-backed issue store
func (d *DatabaseFactory) CreateIssueStore(_ context.Context) (issues.Store, error) {
	slog.Debug("Creating database-backed issue store")
	return issues.NewDBStore(d.pool), nil
}

// CheckReadiness pings the database
func (d *DatabaseFactory) CheckReadiness(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Cleanup releases resources held by the database factory.
// This closes the database connection pool and any active connections.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil && d.ownsPool {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
