package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stacklok/issue-auditor/internal/httpclient"
	"github.com/stacklok/issue-auditor/internal/telemetry"
)

type recordedRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	Authorization string         `json:"-"`
	At            time.Time      `json:"-"`
}

type fakeGraphQL struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(req recordedRequest) (int, string)
}

func (f *fakeGraphQL) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req.Authorization = r.Header.Get("Authorization")
	req.At = time.Now()

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	status, body := f.respond(req)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeGraphQL) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newFakeGraphQL(t *testing.T, respond func(req recordedRequest) (int, string)) (*fakeGraphQL, string) {
	t.Helper()

	fake := &fakeGraphQL{respond: respond}
	server := httptest.NewServer(fake)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return fake, server.URL
}

func newTestClient(endpoint string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithEndpoint(endpoint)}, opts...)
	return NewClient("test-token", NewLimiter(0), opts...)
}

const issueNode = `{"id":"I_%d","number":%d,"title":"Issue %d","body":"body","state":"OPEN",
  "createdAt":"2024-01-0%dT10:00:00Z","updatedAt":"2024-02-0%dT10:00:00Z","closedAt":null,
  "author":{"login":"octocat"}}`

func TestListIssues(t *testing.T) {
	t.Parallel()

	fake, endpoint := newFakeGraphQL(t, func(recordedRequest) (int, string) {
		return http.StatusOK, fmt.Sprintf(`{"data":{"repository":{"issues":{
			"pageInfo":{"hasNextPage":true,"endCursor":"Y3Vyc29y"},
			"nodes":[%s,%s]}}}}`,
			fmt.Sprintf(issueNode, 1, 1, 1, 1, 1),
			fmt.Sprintf(issueNode, 2, 2, 2, 2, 2))
	})

	since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	client := newTestClient(endpoint, WithPageSize(25))
	page, err := client.ListIssues(context.Background(), "octo-org", "hello-world", ListOptions{
		Cursor: "previous",
		Since:  &since,
	})
	require.NoError(t, err)

	assert.True(t, page.HasMore)
	assert.Equal(t, "Y3Vyc29y", page.EndCursor)
	require.Len(t, page.Items, 2)
	assert.Equal(t, Item{
		Kind:      ItemKindIssue,
		Number:    1,
		NodeID:    "I_1",
		Title:     "Issue 1",
		Author:    "octocat",
		State:     "OPEN",
		Body:      "body",
		CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}, page.Items[0])

	requests := fake.recorded()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "Bearer test-token", req.Authorization)
	assert.Contains(t, req.Query, "direction: ASC")
	assert.Equal(t, "octo-org", req.Variables["owner"])
	assert.Equal(t, "hello-world", req.Variables["name"])
	assert.InDelta(t, 25, req.Variables["first"], 0)
	assert.Equal(t, "previous", req.Variables["after"])
	assert.Equal(t, "2024-01-31T23:00:00Z", req.Variables["since"])
}

func TestListPullRequestsUsesSearchWhenIncremental(t *testing.T) {
	t.Parallel()

	fake, endpoint := newFakeGraphQL(t, func(req recordedRequest) (int, string) {
		if strings.Contains(req.Query, "search(") {
			return http.StatusOK, fmt.Sprintf(`{"data":{"search":{
				"pageInfo":{"hasNextPage":false,"endCursor":null},
				"nodes":[%s,{}]}}}`, fmt.Sprintf(issueNode, 7, 7, 7, 7, 7))
		}
		return http.StatusOK, `{"data":{"repository":{"pullRequests":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},"nodes":[]}}}}`
	})

	client := newTestClient(endpoint)
	ctx := context.Background()

	page, err := client.ListPullRequests(ctx, "octo-org", "hello-world", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)

	since := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	page, err = client.ListPullRequests(ctx, "octo-org", "hello-world", ListOptions{Since: &since})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ItemKindPullRequest, page.Items[0].Kind)
	assert.Equal(t, 7, page.Items[0].Number)

	requests := fake.recorded()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].Query, "pullRequests(")
	assert.Equal(t,
		"repo:octo-org/hello-world is:pr sort:updated-asc updated:>=2024-03-01T08:30:00Z",
		requests[1].Variables["query"])
}

func TestFetchAllComments(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"":   `{"hasNextPage":true,"endCursor":"c1"}`,
		"c1": `{"hasNextPage":true,"endCursor":"c2"}`,
		"c2": `{"hasNextPage":false,"endCursor":"c3"}`,
	}
	bodies := map[string]string{"": "A", "c1": "B", "c2": "C"}

	fake, endpoint := newFakeGraphQL(t, func(req recordedRequest) (int, string) {
		after, _ := req.Variables["after"].(string)
		return http.StatusOK, fmt.Sprintf(`{"data":{"repository":{"issue":{"comments":{
			"pageInfo":%s,
			"nodes":[{"id":"IC_%s","body":%q,"createdAt":"2024-01-01T00:00:00Z","author":{"login":"hubot"}}]}}}}}`,
			pages[after], bodies[after], bodies[after])
	})

	client := newTestClient(endpoint)
	comments, err := FetchAll(context.Background(), client.IssueCommentPages("octo-org", "hello-world", 3), 100)
	require.NoError(t, err)

	require.Len(t, comments, 3)
	assert.Equal(t, "A", comments[0].Body)
	assert.Equal(t, "B", comments[1].Body)
	assert.Equal(t, "C", comments[2].Body)
	assert.Equal(t, "hubot", comments[2].Author)
	assert.Len(t, fake.recorded(), 3)
	assert.InDelta(t, 3, fake.recorded()[0].Variables["number"], 0)
}

func TestClientPacesRequests(t *testing.T) {
	t.Parallel()

	fake, endpoint := newFakeGraphQL(t, func(recordedRequest) (int, string) {
		return http.StatusOK, fmt.Sprintf(`{"data":{"repository":{"issue":%s}}}`, fmt.Sprintf(issueNode, 1, 1, 1, 1, 1))
	})

	const interval = 50 * time.Millisecond
	limiter := NewLimiter(interval)
	factory := NewFactory(limiter, WithEndpoint(endpoint))

	// Two credentials, one limiter
	_, err := factory.ForToken("a").GetIssue(context.Background(), "o", "n", 1)
	require.NoError(t, err)
	_, err = factory.ForToken("b").GetIssue(context.Background(), "o", "n", 1)
	require.NoError(t, err)

	requests := fake.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, "Bearer a", requests[0].Authorization)
	assert.Equal(t, "Bearer b", requests[1].Authorization)
	assert.GreaterOrEqual(t, requests[1].At.Sub(requests[0].At), interval-5*time.Millisecond)
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http error is preserved",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			check: func(t *testing.T, err error) {
				t.Helper()
				httpErr, ok := httpclient.AsHTTPError(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
			},
		},
		{
			name:   "rate limited query",
			status: http.StatusOK,
			body:   `{"data":null,"errors":[{"type":"RATE_LIMITED","message":"API rate limit exceeded"}]}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				var gqlErr *GraphQLError
				require.ErrorAs(t, err, &gqlErr)
				assert.True(t, gqlErr.IsRateLimited())
				assert.Contains(t, err.Error(), "API rate limit exceeded")
			},
		},
		{
			name:   "missing repository",
			status: http.StatusOK,
			body:   `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a Repository"}]}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name:   "missing issue",
			status: http.StatusOK,
			body:   `{"data":{"repository":{"issue":null}}}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, ErrNotFound)
				assert.Contains(t, err.Error(), "issue o/n#9")
			},
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.Contains(t, err.Error(), "not valid JSON")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, endpoint := newFakeGraphQL(t, func(recordedRequest) (int, string) {
				return tt.status, tt.body
			})

			_, err := newTestClient(endpoint).GetIssue(context.Background(), "o", "n", 9)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClientRecordsRequestMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewSyncMetrics(provider)
	require.NoError(t, err)

	_, endpoint := newFakeGraphQL(t, func(req recordedRequest) (int, string) {
		if req.Variables["number"] == float64(404) {
			return http.StatusOK, `{"data":{"repository":{"pullRequest":null}}}`
		}
		return http.StatusOK, fmt.Sprintf(`{"data":{"repository":{"pullRequest":%s}}}`, fmt.Sprintf(issueNode, 1, 1, 1, 1, 1))
	})

	client := newTestClient(endpoint, WithSyncMetrics(metrics))
	_, err = client.GetPullRequest(context.Background(), "o", "n", 1)
	require.NoError(t, err)
	_, err = client.GetPullRequest(context.Background(), "o", "n", 404)
	require.ErrorIs(t, err, ErrNotFound)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "auditor_sync_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	// A null item is still a successful request
	assert.Equal(t, int64(2), total)
}
