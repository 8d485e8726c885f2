package handlers

import (
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// NewDefaultRegistry registers the handler for every job kind
func NewDefaultRegistry(
	directory targets.Directory,
	sources SourceFactory,
	store issues.Store,
	opts SyncOptions,
) (*Registry, error) {
	r := NewRegistry(directory)

	if err := Register[jobs.IssueFetchArgs](r, NewIssueFetchHandler(sources, store, opts)); err != nil {
		return nil, err
	}
	if err := Register[jobs.PRFetchArgs](r, NewPRFetchHandler(sources, store, opts)); err != nil {
		return nil, err
	}
	if err := Register[jobs.SingleIssueRefreshArgs](r, NewSingleIssueRefreshHandler(sources, store, opts)); err != nil {
		return nil, err
	}
	if err := Register[jobs.SinglePRRefreshArgs](r, NewSinglePRRefreshHandler(sources, store, opts)); err != nil {
		return nil, err
	}
	if err := Register[jobs.SentimentArgs](r, NewSentimentHandler(store)); err != nil {
		return nil, err
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
