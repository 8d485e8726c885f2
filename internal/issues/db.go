package issues

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

// NewDBStore creates a Store backed by PostgreSQL
func NewDBStore(pool *pgxpool.Pool) Store {
	return &dbStore{queries: sqlc.New(pool)}
}

func (d *dbStore) UpsertItem(ctx context.Context, item Item) error {
	number, err := toInt32(item.Number)
	if err != nil {
		return err
	}

	err = d.queries.UpsertTrackedItem(ctx, sqlc.UpsertTrackedItemParams{
		TargetID:  item.TargetID,
		ItemKind:  string(item.Kind),
		Number:    number,
		NodeID:    item.NodeID,
		Title:     item.Title,
		Author:    item.Author,
		State:     item.State,
		Body:      item.Body,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		ClosedAt:  item.ClosedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s #%d: %w", item.Kind, item.Number, err)
	}
	return nil
}

func (d *dbStore) ListItems(ctx context.Context, targetID uuid.UUID, kind Kind) ([]Item, error) {
	rows, err := d.queries.ListTrackedItems(ctx, sqlc.ListTrackedItemsParams{
		TargetID: targetID,
		ItemKind: string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := make([]Item, len(rows))
	for i, row := range rows {
		result[i] = Item{
			TargetID:  row.TargetID,
			Kind:      Kind(row.ItemKind),
			Number:    int(row.Number),
			NodeID:    row.NodeID,
			Title:     row.Title,
			Author:    row.Author,
			State:     row.State,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			ClosedAt:  row.ClosedAt,
		}
	}
	return result, nil
}

func (d *dbStore) UpsertComment(ctx context.Context, comment Comment) error {
	number, err := toInt32(comment.Number)
	if err != nil {
		return err
	}

	err = d.queries.UpsertItemComment(ctx, sqlc.UpsertItemCommentParams{
		NodeID:    comment.NodeID,
		TargetID:  comment.TargetID,
		ItemKind:  string(comment.Kind),
		Number:    number,
		Author:    comment.Author,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert comment %s: %w", comment.NodeID, err)
	}
	return nil
}

func (d *dbStore) ListUnscoredComments(ctx context.Context, targetID uuid.UUID, limit int) ([]Comment, error) {
	if limit <= 0 || limit > math.MaxInt32 {
		limit = math.MaxInt32
	}

	rows, err := d.queries.ListUnscoredComments(ctx, sqlc.ListUnscoredCommentsParams{
		TargetID: targetID,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored comments: %w", err)
	}

	result := make([]Comment, len(rows))
	for i, row := range rows {
		result[i] = Comment{
			NodeID:    row.NodeID,
			TargetID:  row.TargetID,
			Kind:      Kind(row.ItemKind),
			Number:    int(row.Number),
			Author:    row.Author,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
			Sentiment: row.Sentiment,
		}
	}
	return result, nil
}

func (d *dbStore) SetSentiment(ctx context.Context, nodeID string, score float64) error {
	rows, err := d.queries.SetCommentSentiment(ctx, sqlc.SetCommentSentimentParams{
		NodeID:    nodeID,
		Sentiment: &score,
	})
	if err != nil {
		return fmt.Errorf("failed to set sentiment: %w", err)
	}
	if rows == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (d *dbStore) GetWatermark(ctx context.Context, targetID uuid.UUID, resource string) (*time.Time, error) {
	mark, err := d.queries.GetWatermark(ctx, sqlc.GetWatermarkParams{
		TargetID: targetID,
		Resource: resource,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}
	mark = mark.UTC()
	return &mark, nil
}

func (d *dbStore) AdvanceWatermark(ctx context.Context, targetID uuid.UUID, resource string, updatedAt time.Time) error {
	err := d.queries.UpsertWatermark(ctx, sqlc.UpsertWatermarkParams{
		TargetID:  targetID,
		Resource:  resource,
		UpdatedAt: updatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	return nil
}

func toInt32(n int) (int32, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("number %d out of range", n)
	}
	return int32(n), nil
}
