package status

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_tracker.go -package=mocks -source=tracker.go Tracker

// Tracker reads and writes target sync status
type Tracker interface {
	// GetStatus returns the status of the target
	GetStatus(ctx context.Context, targetID uuid.UUID) (*TargetStatus, error)

	// SetStatus moves the target to phase. jobType is recorded as the current job
	// type when phase is in_progress and cleared otherwise.
	SetStatus(ctx context.Context, targetID uuid.UUID, phase Phase, jobType string) error
}

func currentJobType(phase Phase, jobType string) *string {
	if phase != PhaseInProgress || jobType == "" {
		return nil
	}
	return &jobType
}
