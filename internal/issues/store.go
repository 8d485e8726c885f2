// Package issues stores what the sync handlers fetch: issues, pull requests,
// their comments and the per-resource resume watermarks.
package issues

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCommentNotFound is returned when scoring an unknown comment
var ErrCommentNotFound = errors.New("comment not found")

// Kind is "issue" or "pull_request"
type Kind string

const (
	// KindIssue is an issue
	KindIssue Kind = "issue"
	// KindPullRequest is a pull request
	KindPullRequest Kind = "pull_request"
)

// Watermark resources
const (
	ResourceIssues       = "issues"
	ResourcePullRequests = "pull_requests"
)

// Item is a stored issue or pull request
type Item struct {
	TargetID  uuid.UUID
	Kind      Kind
	Number    int
	NodeID    string
	Title     string
	Author    string
	State     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// Comment is a stored comment. Sentiment is nil until scored.
type Comment struct {
	NodeID    string
	TargetID  uuid.UUID
	Kind      Kind
	Number    int
	Author    string
	Body      string
	CreatedAt time.Time
	Sentiment *float64
}

// Store persists synchronised entities
type Store interface {
	UpsertItem(ctx context.Context, item Item) error
	ListItems(ctx context.Context, targetID uuid.UUID, kind Kind) ([]Item, error)

	// UpsertComment clears the stored sentiment when the body changed
	UpsertComment(ctx context.Context, comment Comment) error
	ListUnscoredComments(ctx context.Context, targetID uuid.UUID, limit int) ([]Comment, error)
	SetSentiment(ctx context.Context, nodeID string, score float64) error

	// GetWatermark returns nil when resource was never synced for targetID
	GetWatermark(ctx context.Context, targetID uuid.UUID, resource string) (*time.Time, error)

	// AdvanceWatermark never moves a watermark backwards
	AdvanceWatermark(ctx context.Context, targetID uuid.UUID, resource string, updatedAt time.Time) error
}
