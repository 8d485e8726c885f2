package storage

import (
	"context"
	"log/slog"

	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// MemoryFactory creates in-memory storage components.
// Nothing survives a restart, so startup recovery always finds an empty queue.
type MemoryFactory struct {
	jobs      jobs.Store
	tracker   status.Tracker
	directory targets.Directory
	issues    issues.Store
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a new in-memory storage factory
func NewMemoryFactory() *MemoryFactory {
	slog.Warn("Using in-memory storage; jobs and sync results are lost on restart")

	return &MemoryFactory{
		jobs:      jobs.NewMemoryStore(),
		tracker:   status.NewMemoryTracker(),
		directory: targets.NewMemoryDirectory(),
		issues:    issues.NewMemoryStore(),
	}
}

// CreateJobStore returns the shared in-memory job store
func (m *MemoryFactory) CreateJobStore(_ context.Context) (jobs.Store, error) {
	return m.jobs, nil
}

// CreateTracker returns the shared in-memory status tracker
func (m *MemoryFactory) CreateTracker(_ context.Context) (status.Tracker, error) {
	return m.tracker, nil
}

// CreateDirectory returns the shared in-memory targets directory
func (m *MemoryFactory) CreateDirectory(_ context.Context) (targets.Directory, error) {
	return m.directory, nil
}

// CreateIssueStore returns the shared in-memory issue store
func (m *MemoryFactory) CreateIssueStore(_ context.Context) (issues.Store, error) {
	return m.issues, nil
}

// CheckReadiness always succeeds
func (*MemoryFactory) CheckReadiness(_ context.Context) error {
	return nil
}

// Cleanup is a no-op
func (*MemoryFactory) Cleanup() {}
