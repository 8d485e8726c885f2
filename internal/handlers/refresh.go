package handlers

import (
	"context"
	"log/slog"

	"github.com/stacklok/issue-auditor/internal/github"
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
)

// SingleIssueRefreshHandler re-fetches one issue and its comments
type SingleIssueRefreshHandler struct {
	fetcher
}

// NewSingleIssueRefreshHandler creates a SingleIssueRefreshHandler
func NewSingleIssueRefreshHandler(sources SourceFactory, store issues.Store, opts SyncOptions) *SingleIssueRefreshHandler {
	return &SingleIssueRefreshHandler{fetcher{sources: sources, store: store, opts: opts}}
}

// Handle implements Handler
func (h *SingleIssueRefreshHandler) Handle(ctx context.Context, args jobs.SingleIssueRefreshArgs, exec ExecContext) error {
	return h.refresh(ctx, issueSync, args.Number, exec)
}

// SinglePRRefreshHandler re-fetches one pull request and its comments
type SinglePRRefreshHandler struct {
	fetcher
}

// NewSinglePRRefreshHandler creates a SinglePRRefreshHandler
func NewSinglePRRefreshHandler(sources SourceFactory, store issues.Store, opts SyncOptions) *SinglePRRefreshHandler {
	return &SinglePRRefreshHandler{fetcher{sources: sources, store: store, opts: opts}}
}

// Handle implements Handler
func (h *SinglePRRefreshHandler) Handle(ctx context.Context, args jobs.SinglePRRefreshArgs, exec ExecContext) error {
	return h.refresh(ctx, pullRequestSync, args.Number, exec)
}

// refresh does not touch the resume watermark; a single item is not a stream position
func (f *fetcher) refresh(ctx context.Context, listing itemSync, number int, exec ExecContext) error {
	src := f.sources(exec.Credential)

	var (
		item *github.Item
		err  error
	)
	if listing.kind == issues.KindPullRequest {
		item, err = src.GetPullRequest(ctx, exec.Namespace, exec.Name, number)
	} else {
		item, err = src.GetIssue(ctx, exec.Namespace, exec.Name, number)
	}
	if err != nil {
		return err
	}

	comments, err := f.persist(ctx, listing, src, *item, exec)
	if err != nil {
		return err
	}

	slog.Info("Item refreshed",
		"target", exec.FullName(),
		"kind", listing.kind,
		"number", number,
		"comments", comments)
	return nil
}
