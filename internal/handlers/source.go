package handlers

import (
	"context"

	"github.com/stacklok/issue-auditor/internal/github"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go Source

// Source is the part of the sync client the handlers use
type Source interface {
	ListIssues(ctx context.Context, namespace, name string, opts github.ListOptions) (*github.Page[github.Item], error)
	ListPullRequests(ctx context.Context, namespace, name string, opts github.ListOptions) (*github.Page[github.Item], error)
	ListIssueComments(
		ctx context.Context, namespace, name string, number int, opts github.ListOptions,
	) (*github.Page[github.Comment], error)
	ListPullRequestComments(
		ctx context.Context, namespace, name string, number int, opts github.ListOptions,
	) (*github.Page[github.Comment], error)
	GetIssue(ctx context.Context, namespace, name string, number int) (*github.Item, error)
	GetPullRequest(ctx context.Context, namespace, name string, number int) (*github.Item, error)
}

// SourceFactory returns a Source authenticated with credential
type SourceFactory func(credential string) Source

// GitHubSources builds sources from a client factory sharing one limiter
func GitHubSources(factory *github.Factory) SourceFactory {
	return func(credential string) Source {
		return factory.ForToken(credential)
	}
}
