// Package github is a rate-limited, paginated client for the GitHub GraphQL API.
// Listings of issues and pull requests are returned in ascending update order so
// that the last processed update time is always a safe resume point.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/stacklok/issue-auditor/internal/httpclient"
	"github.com/stacklok/issue-auditor/internal/otel"
	"github.com/stacklok/issue-auditor/internal/telemetry"
)

const (
	// DefaultEndpoint is the public GraphQL endpoint
	DefaultEndpoint = "https://api.github.com/graphql"

	// DefaultPageSize is used when ListOptions.PageSize is zero
	DefaultPageSize = 50

	// maxPageSize is the largest page the API accepts
	maxPageSize = 100
)

// Client issues GraphQL queries on behalf of one credential
type Client struct {
	http     httpclient.Client
	endpoint string
	limiter  *Limiter
	pageSize int
	metrics  *telemetry.SyncMetrics
	tracer   trace.Tracer
}

type clientConfig struct {
	endpoint   string
	timeout    time.Duration
	pageSize   int
	metrics    *telemetry.SyncMetrics
	tracer     trace.Tracer
	httpClient httpclient.Client
}

// ClientOption configures a Client
type ClientOption func(*clientConfig)

// WithEndpoint sets the GraphQL endpoint URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *clientConfig) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithPageSize sets the default page size
func WithPageSize(size int) ClientOption {
	return func(c *clientConfig) {
		c.pageSize = size
	}
}

// WithSyncMetrics sets the request metrics
func WithSyncMetrics(metrics *telemetry.SyncMetrics) ClientOption {
	return func(c *clientConfig) {
		c.metrics = metrics
	}
}

// WithTracer sets the tracer for request spans
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *clientConfig) {
		c.tracer = tracer
	}
}

// WithHTTPClient replaces the authenticated transport. The token is ignored.
func WithHTTPClient(client httpclient.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// NewClient creates a client authenticating with token and pacing requests through limiter
func NewClient(token string, limiter *Limiter, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		endpoint: DefaultEndpoint,
		timeout:  httpclient.DefaultTimeout,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.httpClient
	if transport == nil {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		transport = httpclient.NewClient(&http.Client{
			Transport: &oauth2.Transport{Source: source, Base: http.DefaultTransport},
			Timeout:   cfg.timeout,
		})
	}

	if limiter == nil {
		limiter = NewLimiter(DefaultMinInterval)
	}

	return &Client{
		http:     transport,
		endpoint: cfg.endpoint,
		limiter:  limiter,
		pageSize: clampPageSize(cfg.pageSize),
		metrics:  cfg.metrics,
		tracer:   cfg.tracer,
	}
}

// Factory builds clients for different credentials that share one limiter
type Factory struct {
	limiter *Limiter
	opts    []ClientOption
}

// NewFactory creates a Factory
func NewFactory(limiter *Limiter, opts ...ClientOption) *Factory {
	return &Factory{limiter: limiter, opts: opts}
}

// ForToken returns a client authenticating with token
func (f *Factory) ForToken(token string) *Client {
	return NewClient(token, f.limiter, f.opts...)
}

// ListIssues returns one page of issues updated at or after opts.Since
func (c *Client) ListIssues(ctx context.Context, namespace, name string, opts ListOptions) (*Page[Item], error) {
	vars := c.listVars(namespace, name, opts)
	vars["since"] = formatSince(opts.Since)

	return fetchConnection(ctx, c, "list_issues", namespace+"/"+name, listIssuesQuery, vars,
		"repository.issues", func(r gjson.Result) Item { return parseItem(ItemKindIssue, r) })
}

// ListPullRequests returns one page of pull requests updated at or after opts.Since
func (c *Client) ListPullRequests(ctx context.Context, namespace, name string, opts ListOptions) (*Page[Item], error) {
	parse := func(r gjson.Result) Item { return parseItem(ItemKindPullRequest, r) }

	if opts.Since == nil {
		return fetchConnection(ctx, c, "list_pull_requests", namespace+"/"+name, listPullRequestsQuery,
			c.listVars(namespace, name, opts), "repository.pullRequests", parse)
	}

	vars := map[string]any{
		"query": fmt.Sprintf("repo:%s/%s is:pr sort:updated-asc updated:>=%s",
			namespace, name, opts.Since.UTC().Format(time.RFC3339)),
		"first": c.resolvePageSize(opts.PageSize),
		"after": nullable(opts.Cursor),
	}
	return fetchConnection(ctx, c, "search_pull_requests", namespace+"/"+name, searchPullRequestsQuery,
		vars, "search", parse)
}

// ListIssueComments returns one page of comments on an issue
func (c *Client) ListIssueComments(
	ctx context.Context, namespace, name string, number int, opts ListOptions,
) (*Page[Comment], error) {
	vars := c.listVars(namespace, name, opts)
	vars["number"] = number
	return fetchConnection(ctx, c, "list_issue_comments", namespace+"/"+name, listIssueCommentsQuery, vars,
		"repository.issue.comments", parseComment)
}

// ListPullRequestComments returns one page of comments on a pull request
func (c *Client) ListPullRequestComments(
	ctx context.Context, namespace, name string, number int, opts ListOptions,
) (*Page[Comment], error) {
	vars := c.listVars(namespace, name, opts)
	vars["number"] = number
	return fetchConnection(ctx, c, "list_pull_request_comments", namespace+"/"+name, listPullRequestCommentsQuery,
		vars, "repository.pullRequest.comments", parseComment)
}

// GetIssue fetches a single issue
func (c *Client) GetIssue(ctx context.Context, namespace, name string, number int) (*Item, error) {
	return c.getItem(ctx, ItemKindIssue, "get_issue", getIssueQuery, "repository.issue", namespace, name, number)
}

// GetPullRequest fetches a single pull request
func (c *Client) GetPullRequest(ctx context.Context, namespace, name string, number int) (*Item, error) {
	return c.getItem(ctx, ItemKindPullRequest, "get_pull_request", getPullRequestQuery, "repository.pullRequest",
		namespace, name, number)
}

// IssueCommentPages adapts ListIssueComments for FetchAll
func (c *Client) IssueCommentPages(namespace, name string, number int) PageFunc[Comment] {
	return func(ctx context.Context, cursor string) (*Page[Comment], error) {
		return c.ListIssueComments(ctx, namespace, name, number, ListOptions{Cursor: cursor, PageSize: maxPageSize})
	}
}

// PullRequestCommentPages adapts ListPullRequestComments for FetchAll
func (c *Client) PullRequestCommentPages(namespace, name string, number int) PageFunc[Comment] {
	return func(ctx context.Context, cursor string) (*Page[Comment], error) {
		return c.ListPullRequestComments(ctx, namespace, name, number, ListOptions{Cursor: cursor, PageSize: maxPageSize})
	}
}

func (c *Client) getItem(
	ctx context.Context, kind ItemKind, operation, query, path, namespace, name string, number int,
) (*Item, error) {
	vars := map[string]any{"owner": namespace, "name": name, "number": number}
	data, err := c.execute(ctx, operation, namespace+"/"+name, query, vars, nil)
	if err != nil {
		return nil, err
	}

	node := data.Get(path)
	if !node.Exists() || node.Type == gjson.Null {
		return nil, fmt.Errorf("%s %s/%s#%d: %w", kind, namespace, name, number, ErrNotFound)
	}
	item := parseItem(kind, node)
	return &item, nil
}

func (c *Client) listVars(namespace, name string, opts ListOptions) map[string]any {
	return map[string]any{
		"owner": namespace,
		"name":  name,
		"first": c.resolvePageSize(opts.PageSize),
		"after": nullable(opts.Cursor),
	}
}

func (c *Client) resolvePageSize(size int) int {
	if size <= 0 {
		return c.pageSize
	}
	return clampPageSize(size)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// execute runs one paced GraphQL request and returns its data member
func (c *Client) execute(
	ctx context.Context, operation, target, query string, vars map[string]any, span trace.Span,
) (gjson.Result, error) {
	if span == nil {
		var spanCtx context.Context
		spanCtx, span = otel.StartSpan(ctx, c.tracer, "github."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				otel.AttrSyncOperation.String(operation),
				otel.AttrTargetName.String(target),
			),
		)
		defer span.End()
		ctx = spanCtx
	}

	body, err := RateLimitedCall(ctx, c.limiter, func(ctx context.Context) ([]byte, error) {
		return c.http.PostJSON(ctx, c.endpoint, graphQLRequest{Query: query, Variables: vars})
	})
	if err == nil {
		err = checkResponse(body)
	}
	c.metrics.RecordRequest(ctx, operation, err == nil)
	if err != nil {
		otel.RecordError(span, err)
		return gjson.Result{}, fmt.Errorf("%s %s: %w", operation, target, err)
	}

	return gjson.GetBytes(body, "data"), nil
}

func checkResponse(body []byte) error {
	if !gjson.ValidBytes(body) {
		return errors.New("response is not valid JSON")
	}

	errs := gjson.GetBytes(body, "errors").Array()
	if len(errs) == 0 {
		return nil
	}

	gqlErr := &GraphQLError{Type: errs[0].Get("type").String()}
	for _, e := range errs {
		gqlErr.Messages = append(gqlErr.Messages, e.Get("message").String())
	}
	return gqlErr
}

func fetchConnection[T any](
	ctx context.Context,
	c *Client,
	operation, target, query string,
	vars map[string]any,
	path string,
	parse func(gjson.Result) T,
) (*Page[T], error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "github."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			otel.AttrSyncOperation.String(operation),
			otel.AttrTargetName.String(target),
			otel.AttrPageSize.Int(vars["first"].(int)),
			otel.AttrHasCursor.Bool(vars["after"] != nil),
		),
	)
	defer span.End()

	data, err := c.execute(ctx, operation, target, query, vars, span)
	if err != nil {
		return nil, err
	}

	conn := data.Get(path)
	if !conn.Exists() || conn.Type == gjson.Null {
		return nil, fmt.Errorf("%s %s: %w", operation, target, ErrNotFound)
	}

	page := &Page[T]{
		HasMore:   conn.Get("pageInfo.hasNextPage").Bool(),
		EndCursor: conn.Get("pageInfo.endCursor").String(),
	}
	for _, node := range conn.Get("nodes").Array() {
		// Search results may include non-matching node types as empty objects
		if node.Type == gjson.Null || !node.Get("id").Exists() {
			continue
		}
		page.Items = append(page.Items, parse(node))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(page.Items)))
	return page, nil
}

func parseItem(kind ItemKind, r gjson.Result) Item {
	item := Item{
		Kind:      kind,
		Number:    int(r.Get("number").Int()),
		NodeID:    r.Get("id").String(),
		Title:     r.Get("title").String(),
		Author:    r.Get("author.login").String(),
		State:     r.Get("state").String(),
		Body:      r.Get("body").String(),
		CreatedAt: parseTime(r.Get("createdAt")),
		UpdatedAt: parseTime(r.Get("updatedAt")),
	}
	if closed := r.Get("closedAt"); closed.Exists() && closed.Type != gjson.Null {
		t := parseTime(closed)
		item.ClosedAt = &t
	}
	return item
}

func parseComment(r gjson.Result) Comment {
	return Comment{
		NodeID:    r.Get("id").String(),
		Author:    r.Get("author.login").String(),
		Body:      r.Get("body").String(),
		CreatedAt: parseTime(r.Get("createdAt")),
	}
}

func parseTime(r gjson.Result) time.Time {
	t, err := time.Parse(time.RFC3339, r.String())
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatSince(since *time.Time) any {
	if since == nil {
		return nil
	}
	return since.UTC().Format(time.RFC3339)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func clampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, maxPageSize)
}
