package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/issue-auditor/internal/db/sqlc"
)

// foreignKeyViolation is the PostgreSQL error code for a missing referenced row
const foreignKeyViolation = "23503"

type dbDirectory struct {
	queries *sqlc.Queries
}

// NewDBDirectory creates a Directory backed by the owners and targets tables
func NewDBDirectory(pool *pgxpool.Pool) Directory {
	return &dbDirectory{queries: sqlc.New(pool)}
}

func (d *dbDirectory) RegisterOwner(ctx context.Context, login, accessToken string) (*Owner, error) {
	if err := validateOwner(login, accessToken); err != nil {
		return nil, err
	}

	row, err := d.queries.UpsertOwner(ctx, sqlc.UpsertOwnerParams{
		Login:       login,
		AccessToken: accessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert owner: %w", err)
	}
	return ownerFromRow(row), nil
}

func (d *dbDirectory) GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error) {
	row, err := d.queries.GetOwner(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return ownerFromRow(row), nil
}

func (d *dbDirectory) RegisterTarget(ctx context.Context, ownerID uuid.UUID, namespace, name string) (*Target, error) {
	if err := validateTarget(namespace, name); err != nil {
		return nil, err
	}

	row, err := d.queries.UpsertTarget(ctx, sqlc.UpsertTargetParams{
		OwnerID:   ownerID,
		Namespace: namespace,
		Name:      name,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, fmt.Errorf("owner %s: %w", ownerID, ErrOwnerNotFound)
		}
		return nil, fmt.Errorf("failed to upsert target: %w", err)
	}
	return targetFromRow(row), nil
}

func (d *dbDirectory) GetTarget(ctx context.Context, id uuid.UUID) (*Target, error) {
	row, err := d.queries.GetTarget(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}
	return targetFromRow(row), nil
}

func (d *dbDirectory) ListTargets(ctx context.Context) ([]*Target, error) {
	rows, err := d.queries.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	result := make([]*Target, len(rows))
	for i, row := range rows {
		result[i] = targetFromRow(row)
	}
	return result, nil
}

func ownerFromRow(row sqlc.Owner) *Owner {
	return &Owner{
		ID:          row.ID,
		Login:       row.Login,
		AccessToken: row.AccessToken,
		CreatedAt:   row.CreatedAt,
	}
}

func targetFromRow(row sqlc.Target) *Target {
	return &Target{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Namespace: row.Namespace,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}
