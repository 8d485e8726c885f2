package sqlc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/issue-auditor/database"
)

func insertTestJob(t *testing.T, queries *Queries, targetID uuid.UUID, dedupKey string, priority int32) uuid.UUID {
	t.Helper()

	id, err := queries.InsertJob(context.Background(), InsertJobParams{
		ID:        uuid.New(),
		JobType:   "issue-fetch",
		TargetID:  targetID,
		OwnerID:   uuid.New(),
		Args:      []byte(`{}`),
		DedupKey:  dedupKey,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestInsertJobDeduplicatesActiveJobs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		setupFunc    func(t *testing.T, queries *Queries) uuid.UUID
		scenarioFunc func(t *testing.T, queries *Queries, targetID uuid.UUID)
	}{
		{
			name: "second pending insert with same key is ignored",
			//nolint:thelper // We want to see these lines in the test output
			setupFunc: func(t *testing.T, queries *Queries) uuid.UUID {
				targetID := uuid.New()
				insertTestJob(t, queries, targetID, "key-1", 0)
				return targetID
			},
			//nolint:thelper // We want to see these lines in the test output
			scenarioFunc: func(t *testing.T, queries *Queries, targetID uuid.UUID) {
				_, err := queries.InsertJob(context.Background(), InsertJobParams{
					ID:        uuid.New(),
					JobType:   "issue-fetch",
					TargetID:  targetID,
					OwnerID:   uuid.New(),
					Args:      []byte(`{}`),
					DedupKey:  "key-1",
					CreatedAt: time.Now().UTC(),
				})
				require.ErrorIs(t, err, pgx.ErrNoRows)

				count, err := queries.CountJobsByStatus(context.Background(), "pending")
				require.NoError(t, err)
				require.Equal(t, int64(1), count)
			},
		},
		{
			name: "finished job does not block a new insert",
			//nolint:thelper // We want to see these lines in the test output
			setupFunc: func(t *testing.T, queries *Queries) uuid.UUID {
				targetID := uuid.New()
				id := insertTestJob(t, queries, targetID, "key-2", 0)
				now := time.Now().UTC()
				claimed, err := queries.ClaimNextJob(context.Background(), &now)
				require.NoError(t, err)
				require.Equal(t, id, claimed.ID)
				rows, err := queries.CompleteJob(context.Background(), CompleteJobParams{ID: id, CompletedAt: &now})
				require.NoError(t, err)
				require.Equal(t, int64(1), rows)
				return targetID
			},
			//nolint:thelper // We want to see these lines in the test output
			scenarioFunc: func(t *testing.T, queries *Queries, targetID uuid.UUID) {
				id := insertTestJob(t, queries, targetID, "key-2", 0)
				job, err := queries.GetJob(context.Background(), id)
				require.NoError(t, err)
				require.Equal(t, "pending", job.Status)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, cleanupFunc := database.SetupTestDB(t)
			t.Cleanup(cleanupFunc)
			queries := New(db)

			targetID := tc.setupFunc(t, queries)
			tc.scenarioFunc(t, queries, targetID)
		})
	}
}

func TestClaimNextJob(t *testing.T) {
	t.Parallel()

	db, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	queries := New(db)
	ctx := context.Background()

	targetA := uuid.New()
	targetB := uuid.New()
	first := insertTestJob(t, queries, targetA, "a-1", 5)
	second := insertTestJob(t, queries, targetA, "a-2", 0)
	third := insertTestJob(t, queries, targetB, "b-1", 1)

	now := time.Now().UTC()

	// Lowest priority value wins
	claimed, err := queries.ClaimNextJob(ctx, &now)
	require.NoError(t, err)
	require.Equal(t, second, claimed.ID)
	require.Equal(t, "processing", claimed.Status)
	require.NotNil(t, claimed.StartedAt)

	// Target A is busy, so its remaining job is skipped
	claimed, err = queries.ClaimNextJob(ctx, &now)
	require.NoError(t, err)
	require.Equal(t, third, claimed.ID)

	_, err = queries.ClaimNextJob(ctx, &now)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	msg := "boom"
	rows, err := queries.FailJob(ctx, FailJobParams{ID: second, CompletedAt: &now, ErrorMsg: &msg})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	claimed, err = queries.ClaimNextJob(ctx, &now)
	require.NoError(t, err)
	require.Equal(t, first, claimed.ID)

	failed, err := queries.GetJob(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "failed", failed.Status)
	require.NotNil(t, failed.ErrorMsg)
	require.Equal(t, "boom", *failed.ErrorMsg)
}

func TestResetProcessingAndRetention(t *testing.T) {
	t.Parallel()

	db, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	queries := New(db)
	ctx := context.Background()

	stuck := insertTestJob(t, queries, uuid.New(), "stuck", 0)
	now := time.Now().UTC()
	_, err := queries.ClaimNextJob(ctx, &now)
	require.NoError(t, err)

	old := insertTestJob(t, queries, uuid.New(), "old", 0)
	_, err = queries.ClaimNextJob(ctx, &now)
	require.NoError(t, err)
	longAgo := now.Add(-8 * 24 * time.Hour)
	_, err = queries.CompleteJob(ctx, CompleteJobParams{ID: old, CompletedAt: &longAgo})
	require.NoError(t, err)

	reset, err := queries.ResetProcessingJobs(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), reset)

	job, err := queries.GetJob(ctx, stuck)
	require.NoError(t, err)
	require.Equal(t, "pending", job.Status)
	require.Nil(t, job.StartedAt)

	cutoff := now.Add(-7 * 24 * time.Hour)
	deleted, err := queries.DeleteFinishedJobsBefore(ctx, &cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = queries.GetJob(ctx, old)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
