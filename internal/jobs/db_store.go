package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/issue-auditor/internal/db/sqlc"
)

type dbStore struct {
	queries *sqlc.Queries
}

// NewDBStore creates a Store backed by the jobs table.
// Deduplication relies on the partial unique index over active dedup keys.
func NewDBStore(pool *pgxpool.Pool) Store {
	return &dbStore{
		queries: sqlc.New(pool),
	}
}

func (d *dbStore) Insert(ctx context.Context, job *Job) (bool, error) {
	if job.Priority < math.MinInt32 || job.Priority > math.MaxInt32 {
		return false, fmt.Errorf("priority %d out of range", job.Priority)
	}

	args := []byte(job.Args)
	if len(args) == 0 {
		args = []byte("{}")
	}

	_, err := d.queries.InsertJob(ctx, sqlc.InsertJobParams{
		ID:        job.ID,
		JobType:   string(job.Kind),
		TargetID:  job.TargetID,
		OwnerID:   job.OwnerID,
		Args:      args,
		DedupKey:  job.DedupKey,
		Priority:  int32(job.Priority),
		CreatedAt: job.CreatedAt,
	})
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row for a duplicate
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert job: %w", err)
	}
	return true, nil
}

func (d *dbStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	count, err := d.queries.CountJobsByStatus(ctx, string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s jobs: %w", status, err)
	}
	return int(count), nil
}

func (d *dbStore) ClaimNext(ctx context.Context, startedAt time.Time) (*Job, error) {
	row, err := d.queries.ClaimNextJob(ctx, &startedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return jobFromRow(row), nil
}

func (d *dbStore) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	rows, err := d.queries.CompleteJob(ctx, sqlc.CompleteJobParams{
		ID:          id,
		CompletedAt: &completedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", id, ErrJobNotProcessing)
	}
	return nil
}

func (d *dbStore) Fail(ctx context.Context, id uuid.UUID, completedAt time.Time, reason string) error {
	rows, err := d.queries.FailJob(ctx, sqlc.FailJobParams{
		ID:          id,
		CompletedAt: &completedAt,
		ErrorMsg:    &reason,
	})
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", id, ErrJobNotProcessing)
	}
	return nil
}

func (d *dbStore) ResetProcessing(ctx context.Context) (int, error) {
	rows, err := d.queries.ResetProcessingJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing jobs: %w", err)
	}
	return int(rows), nil
}

func (d *dbStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := d.queries.DeleteFinishedJobsBefore(ctx, &cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished jobs: %w", err)
	}
	return int(rows), nil
}

func (d *dbStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row, err := d.queries.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return jobFromRow(row), nil
}

func (d *dbStore) List(ctx context.Context, filter ListFilter) ([]*Job, error) {
	params := sqlc.ListJobsParams{MaxResults: DefaultListLimit}
	if filter.Limit > 0 && filter.Limit <= math.MaxInt32 {
		params.MaxResults = int32(filter.Limit)
	}
	if filter.Status != "" {
		status := string(filter.Status)
		params.Status = &status
	}
	if filter.TargetID != uuid.Nil {
		targetID := filter.TargetID
		params.TargetID = &targetID
	}

	rows, err := d.queries.ListJobs(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*Job, len(rows))
	for i, row := range rows {
		result[i] = jobFromRow(row)
	}
	return result, nil
}

func jobFromRow(row sqlc.Job) *Job {
	job := &Job{
		ID:          row.ID,
		Kind:        Kind(row.JobType),
		TargetID:    row.TargetID,
		OwnerID:     row.OwnerID,
		Args:        row.Args,
		DedupKey:    row.DedupKey,
		Status:      Status(row.Status),
		Priority:    int(row.Priority),
		CreatedAt:   row.CreatedAt,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}
	if row.ErrorMsg != nil {
		job.Error = *row.ErrorMsg
	}
	return job
}
