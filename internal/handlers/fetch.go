package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/issue-auditor/internal/github"
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
)

// SyncOptions tunes the fetch handlers
type SyncOptions struct {
	// PageSize for top-level listings; zero uses the client default
	PageSize int

	// MaxComments caps the comments fetched per item
	MaxComments int
}

func (o SyncOptions) maxComments() int {
	if o.MaxComments <= 0 {
		return github.DefaultMaxSubResourceItems
	}
	return o.MaxComments
}

// itemSync describes one top-level listing
type itemSync struct {
	kind     issues.Kind
	resource string
	list     func(src Source) func(ctx context.Context, ns, name string, opts github.ListOptions) (*github.Page[github.Item], error)
	comments func(src Source, ns, name string, number int) github.PageFunc[github.Comment]
}

var issueSync = itemSync{
	kind:     issues.KindIssue,
	resource: issues.ResourceIssues,
	list: func(src Source) func(context.Context, string, string, github.ListOptions) (*github.Page[github.Item], error) {
		return src.ListIssues
	},
	comments: func(src Source, ns, name string, number int) github.PageFunc[github.Comment] {
		return func(ctx context.Context, cursor string) (*github.Page[github.Comment], error) {
			return src.ListIssueComments(ctx, ns, name, number, github.ListOptions{Cursor: cursor})
		}
	},
}

var pullRequestSync = itemSync{
	kind:     issues.KindPullRequest,
	resource: issues.ResourcePullRequests,
	list: func(src Source) func(context.Context, string, string, github.ListOptions) (*github.Page[github.Item], error) {
		return src.ListPullRequests
	},
	comments: func(src Source, ns, name string, number int) github.PageFunc[github.Comment] {
		return func(ctx context.Context, cursor string) (*github.Page[github.Comment], error) {
			return src.ListPullRequestComments(ctx, ns, name, number, github.ListOptions{Cursor: cursor})
		}
	},
}

// fetcher holds what both fetch handlers share
type fetcher struct {
	sources SourceFactory
	store   issues.Store
	opts    SyncOptions
}

// IssueFetchHandler syncs a target's issues and their comments
type IssueFetchHandler struct {
	fetcher
}

// NewIssueFetchHandler creates an IssueFetchHandler
func NewIssueFetchHandler(sources SourceFactory, store issues.Store, opts SyncOptions) *IssueFetchHandler {
	return &IssueFetchHandler{fetcher{sources: sources, store: store, opts: opts}}
}

// Handle implements Handler
func (h *IssueFetchHandler) Handle(ctx context.Context, args jobs.IssueFetchArgs, exec ExecContext) error {
	return h.sync(ctx, issueSync, args.Since, args.Full, exec)
}

// PRFetchHandler syncs a target's pull requests and their comments
type PRFetchHandler struct {
	fetcher
}

// NewPRFetchHandler creates a PRFetchHandler
func NewPRFetchHandler(sources SourceFactory, store issues.Store, opts SyncOptions) *PRFetchHandler {
	return &PRFetchHandler{fetcher{sources: sources, store: store, opts: opts}}
}

// Handle implements Handler
func (h *PRFetchHandler) Handle(ctx context.Context, args jobs.PRFetchArgs, exec ExecContext) error {
	return h.sync(ctx, pullRequestSync, args.Since, args.Full, exec)
}

// sync streams the listing in ascending update order, persisting each item
// and then advancing the resume watermark to its update time
func (f *fetcher) sync(ctx context.Context, listing itemSync, since *time.Time, full bool, exec ExecContext) error {
	if since == nil && !full {
		mark, err := f.store.GetWatermark(ctx, exec.TargetID, listing.resource)
		if err != nil {
			return err
		}
		since = mark
	}

	src := f.sources(exec.Credential)
	list := listing.list(src)

	logger := slog.With("target", exec.FullName(), "kind", listing.kind, "job_id", exec.JobID)
	logger.Info("Syncing items", "since", since, "full", full)

	var (
		cursor   string
		synced   int
		comments int
	)
	for {
		page, err := list(ctx, exec.Namespace, exec.Name, github.ListOptions{
			PageSize: f.opts.PageSize,
			Cursor:   cursor,
			Since:    since,
		})
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			n, err := f.persist(ctx, listing, src, item, exec)
			if err != nil {
				return err
			}
			if err := f.store.AdvanceWatermark(ctx, exec.TargetID, listing.resource, item.UpdatedAt); err != nil {
				return err
			}
			synced++
			comments += n
		}

		if !page.HasMore {
			break
		}
		if page.EndCursor == "" || page.EndCursor == cursor {
			return fmt.Errorf("%s listing after cursor %q: %w", listing.kind, cursor, github.ErrMissingCursor)
		}
		cursor = page.EndCursor
	}

	logger.Info("Items synced", "items", synced, "comments", comments)
	return nil
}

// persist stores item and all of its comments, returning the comment count
func (f *fetcher) persist(ctx context.Context, listing itemSync, src Source, item github.Item, exec ExecContext) (int, error) {
	if err := f.store.UpsertItem(ctx, toStoredItem(listing.kind, item, exec)); err != nil {
		return 0, err
	}

	comments, err := github.FetchAll(ctx, listing.comments(src, exec.Namespace, exec.Name, item.Number), f.opts.maxComments())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch comments of #%d: %w", item.Number, err)
	}

	for _, c := range comments {
		err := f.store.UpsertComment(ctx, issues.Comment{
			NodeID:    c.NodeID,
			TargetID:  exec.TargetID,
			Kind:      listing.kind,
			Number:    item.Number,
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(comments), nil
}

func toStoredItem(kind issues.Kind, item github.Item, exec ExecContext) issues.Item {
	return issues.Item{
		TargetID:  exec.TargetID,
		Kind:      kind,
		Number:    item.Number,
		NodeID:    item.NodeID,
		Title:     item.Title,
		Author:    item.Author,
		State:     item.State,
		Body:      item.Body,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		ClosedAt:  item.ClosedAt,
	}
}
