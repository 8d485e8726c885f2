// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern so that the job store, the status
// tracker, the targets directory and the issue store always share one backend.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
// Repeated calls return components backed by the same storage.
type Factory interface {
	// CreateJobStore creates the persistent job queue
	CreateJobStore(ctx context.Context) (jobs.Store, error)

	// CreateTracker creates the target status tracker
	CreateTracker(ctx context.Context) (status.Tracker, error)

	// CreateDirectory creates the owners and targets directory
	CreateDirectory(ctx context.Context) (targets.Directory, error)

	// CreateIssueStore creates the store for synced issues, pull requests and comments
	CreateIssueStore(ctx context.Context) (issues.Store, error)

	// CheckReadiness reports whether the backend is reachable
	CheckReadiness(ctx context.Context) error

	// Cleanup releases any resources held by this factory.
	// For database factories, this closes the connection pool.
	// For memory factories, this is a no-op.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg)
	case config.StorageTypeMemory:
		return NewMemoryFactory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
