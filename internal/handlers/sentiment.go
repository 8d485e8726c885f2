package handlers

import (
	"context"
	"log/slog"

	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/sentiment"
)

// DefaultSentimentBatch is how many comments one sentiment job scores when
// no limit is given
const DefaultSentimentBatch = 200

// SentimentHandler scores stored comments that have no score yet
type SentimentHandler struct {
	store issues.Store
	score func(text string) float64
}

// NewSentimentHandler creates a SentimentHandler using the lexicon scorer
func NewSentimentHandler(store issues.Store) *SentimentHandler {
	return &SentimentHandler{store: store, score: sentiment.Score}
}

// Handle implements Handler
func (h *SentimentHandler) Handle(ctx context.Context, args jobs.SentimentArgs, exec ExecContext) error {
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultSentimentBatch
	}

	comments, err := h.store.ListUnscoredComments(ctx, exec.TargetID, limit)
	if err != nil {
		return err
	}

	for _, c := range comments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.store.SetSentiment(ctx, c.NodeID, h.score(c.Body)); err != nil {
			return err
		}
	}

	slog.Info("Comments scored", "target", exec.FullName(), "count", len(comments))
	return nil
}
