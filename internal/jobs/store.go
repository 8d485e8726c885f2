package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

var (
	// ErrJobNotFound is returned when a job does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotProcessing is returned when completing a job that is not processing
	ErrJobNotProcessing = errors.New("job is not processing")
)

// Store persists jobs. Implementations must make Insert and ClaimNext atomic
// with respect to each other.
type Store interface {
	// Insert persists job as pending. It returns false without writing when a
	// pending or processing job with the same DedupKey exists.
	Insert(ctx context.Context, job *Job) (bool, error)

	// CountByStatus returns the number of jobs in status
	CountByStatus(ctx context.Context, status Status) (int, error)

	// ClaimNext marks the best eligible pending job processing and returns it.
	// Eligible means no other job for the same target is processing; best means
	// lowest priority value, then oldest. Returns nil when nothing is eligible.
	ClaimNext(ctx context.Context, startedAt time.Time) (*Job, error)

	// Complete marks a processing job completed
	Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error

	// Fail marks a processing job failed with reason
	Fail(ctx context.Context, id uuid.UUID, completedAt time.Time, reason string) error

	// ResetProcessing returns every processing job to pending
	ResetProcessing(ctx context.Context) (int, error)

	// DeleteFinishedBefore removes completed and failed jobs finished before cutoff
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Get returns a job by id
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// List returns jobs matching filter, newest first
	List(ctx context.Context, filter ListFilter) ([]*Job, error)
}
