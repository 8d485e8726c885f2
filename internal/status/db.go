package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/issue-auditor/internal/db/sqlc"
)

type dbTracker struct {
	queries *sqlc.Queries
}

// NewDBTracker creates a Tracker backed by the targets table
func NewDBTracker(pool *pgxpool.Pool) Tracker {
	return &dbTracker{
		queries: sqlc.New(pool),
	}
}

func (d *dbTracker) GetStatus(ctx context.Context, targetID uuid.UUID) (*TargetStatus, error) {
	target, err := d.queries.GetTarget(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get target status: %w", err)
	}

	return &TargetStatus{
		Phase:          Phase(target.SyncStatus),
		CurrentJobType: target.CurrentJobType,
		UpdatedAt:      target.StatusUpdatedAt,
	}, nil
}

func (d *dbTracker) SetStatus(ctx context.Context, targetID uuid.UUID, phase Phase, jobType string) error {
	if !phase.Valid() {
		return fmt.Errorf("invalid phase %q", phase)
	}

	now := time.Now().UTC()
	rows, err := d.queries.UpdateTargetStatus(ctx, sqlc.UpdateTargetStatusParams{
		ID:              targetID,
		SyncStatus:      string(phase),
		CurrentJobType:  currentJobType(phase, jobType),
		StatusUpdatedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("failed to update target status: %w", err)
	}
	if rows == 0 {
		return ErrTargetNotFound
	}
	return nil
}
