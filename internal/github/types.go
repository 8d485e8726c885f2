package github

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when the repository or the requested item does not exist
var ErrNotFound = errors.New("not found")

// ItemKind distinguishes issues from pull requests
type ItemKind string

const (
	// ItemKindIssue is an issue
	ItemKindIssue ItemKind = "issue"
	// ItemKindPullRequest is a pull request
	ItemKindPullRequest ItemKind = "pull_request"
)

// Item is an issue or pull request
type Item struct {
	Kind      ItemKind
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

// Comment is a comment on an issue or pull request
type Comment struct {
	NodeID    string
	Author    string
	Body      string
	CreatedAt time.Time
}

// ListOptions controls a single page request
type ListOptions struct {
	// PageSize defaults to the client's page size
	PageSize int

	// Cursor is the end cursor of the previous page
	Cursor string

	// Since restricts top-level listings to entities updated at or after it
	Since *time.Time
}

// GraphQLError is returned when the API answers with an errors array
type GraphQLError struct {
	Type     string
	Messages []string
}

// Error implements the error interface
func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// Unwrap maps NOT_FOUND errors to ErrNotFound
func (e *GraphQLError) Unwrap() error {
	if e.Type == "NOT_FOUND" {
		return ErrNotFound
	}
	return nil
}

// IsRateLimited reports whether the API rejected the query for quota reasons
func (e *GraphQLError) IsRateLimited() bool {
	return e.Type == "RATE_LIMITED"
}
