package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockItem is an issue or pull request served by the GitHub mock
type MockItem struct {
	Number    int
	Title     string
	Body      string
	UpdatedAt time.Time
	Comments  []string
}

// GraphQLCall records one request received by the mock
type GraphQLCall struct {
	Operation string
	Repo      string
	Token     string
	Variables map[string]any
}

// GitHubMock is a GraphQL server answering the queries the sync client sends
type GitHubMock struct {
	*httptest.Server

	mu       sync.Mutex
	issues   map[string][]MockItem
	pulls    map[string][]MockItem
	failing  map[string]string
	calls    []GraphQLCall
	gate     chan struct{}
	pageSize int
}

// NewGitHubMock starts the mock. pageSize caps every page it returns.
func NewGitHubMock(pageSize int) *GitHubMock {
	m := &GitHubMock{
		issues:   make(map[string][]MockItem),
		pulls:    make(map[string][]MockItem),
		failing:  make(map[string]string),
		pageSize: pageSize,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// AddIssues adds issues to repo ("namespace/name")
func (m *GitHubMock) AddIssues(repo string, items ...MockItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[repo] = append(m.issues[repo], items...)
}

// AddPullRequests adds pull requests to repo
func (m *GitHubMock) AddPullRequests(repo string, items ...MockItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls[repo] = append(m.pulls[repo], items...)
}

// FailRepo answers every query for repo with a GraphQL error of errType
func (m *GitHubMock) FailRepo(repo, errType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[repo] = errType
}

// Hold blocks every request until the returned release function is called
func (m *GitHubMock) Hold() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.gate = nil
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the requests received for repo with the given operation
func (m *GitHubMock) Calls(repo, operation string) []GraphQLCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []GraphQLCall
	for _, c := range m.calls {
		if c.Repo == repo && c.Operation == operation {
			out = append(out, c)
		}
	}
	return out
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (m *GitHubMock) serve(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	op := operation(req.Query)
	repo := repoOf(op, req.Variables)

	m.mu.Lock()
	m.calls = append(m.calls, GraphQLCall{
		Operation: op,
		Repo:      repo,
		Token:     strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
		Variables: req.Variables,
	})
	gate := m.gate
	errType := m.failing[repo]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if errType != "" {
		writeJSON(w, map[string]any{
			"errors": []map[string]any{{"type": errType, "message": "mock failure: " + errType}},
		})
		return
	}

	writeJSON(w, map[string]any{"data": m.answer(op, repo, req.Variables)})
}

func (m *GitHubMock) answer(op, repo string, vars map[string]any) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch op {
	case "issues":
		items := since(m.issues[repo], vars["since"])
		return repository("issues", m.connection(items, vars, repo, "I"))
	case "pullRequests":
		return repository("pullRequests", m.connection(sorted(m.pulls[repo]), vars, repo, "PR"))
	case "search":
		query, _ := vars["query"].(string)
		_, after, _ := strings.Cut(query, "updated:>=")
		items := since(m.pulls[repo], after)
		return map[string]any{"search": m.connection(items, vars, repo, "PR")}
	case "issueComments", "pullRequestComments":
		field, items := "issue", m.issues[repo]
		if op == "pullRequestComments" {
			field, items = "pullRequest", m.pulls[repo]
		}
		item, ok := find(items, number(vars))
		if !ok {
			return repository(field, nil)
		}
		return repository(field, map[string]any{"comments": commentConnection(repo, item, vars, m.pageSize)})
	case "issue", "pullRequest":
		items, prefix := m.issues[repo], "I"
		if op == "pullRequest" {
			items, prefix = m.pulls[repo], "PR"
		}
		item, ok := find(items, number(vars))
		if !ok {
			return repository(op, nil)
		}
		return repository(op, node(repo, prefix, item))
	default:
		return nil
	}
}

func (m *GitHubMock) connection(items []MockItem, vars map[string]any, repo, prefix string) map[string]any {
	start, end := window(len(items), vars, m.pageSize)
	nodes := make([]map[string]any, 0, end-start)
	for _, item := range items[start:end] {
		nodes = append(nodes, node(repo, prefix, item))
	}
	return map[string]any{
		"pageInfo": map[string]any{"hasNextPage": end < len(items), "endCursor": strconv.Itoa(end)},
		"nodes":    nodes,
	}
}

func commentConnection(repo string, item MockItem, vars map[string]any, pageSize int) map[string]any {
	start, end := window(len(item.Comments), vars, pageSize)
	nodes := make([]map[string]any, 0, end-start)
	for i := start; i < end; i++ {
		nodes = append(nodes, map[string]any{
			"id":        fmt.Sprintf("C_%s_%d_%d", repo, item.Number, i),
			"body":      item.Comments[i],
			"createdAt": item.UpdatedAt.Format(time.RFC3339),
			"author":    map[string]any{"login": "commenter"},
		})
	}
	return map[string]any{
		"pageInfo": map[string]any{"hasNextPage": end < len(item.Comments), "endCursor": strconv.Itoa(end)},
		"nodes":    nodes,
	}
}

func node(repo, prefix string, item MockItem) map[string]any {
	return map[string]any{
		"id":        fmt.Sprintf("%s_%s_%d", prefix, repo, item.Number),
		"number":    item.Number,
		"title":     item.Title,
		"body":      item.Body,
		"state":     "OPEN",
		"createdAt": item.UpdatedAt.Format(time.RFC3339),
		"updatedAt": item.UpdatedAt.Format(time.RFC3339),
		"closedAt":  nil,
		"author":    map[string]any{"login": "octocat"},
	}
}

func repository(field string, value any) map[string]any {
	return map[string]any{"repository": map[string]any{field: value}}
}

// window applies the first/after variables to a list of n elements
func window(n int, vars map[string]any, pageSize int) (int, int) {
	start := 0
	if after, ok := vars["after"].(string); ok && after != "" {
		start, _ = strconv.Atoi(after)
	}
	first := pageSize
	if f, ok := vars["first"].(float64); ok && int(f) < first {
		first = int(f)
	}
	start = min(start, n)
	return start, min(start+first, n)
}

func since(items []MockItem, raw any) []MockItem {
	out := sorted(items)
	s, ok := raw.(string)
	if !ok || s == "" {
		return out
	}
	cutoff, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return out
	}
	filtered := out[:0]
	for _, item := range out {
		if !item.UpdatedAt.Before(cutoff) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func sorted(items []MockItem) []MockItem {
	out := append([]MockItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

func find(items []MockItem, n int) (MockItem, bool) {
	for _, item := range items {
		if item.Number == n {
			return item, true
		}
	}
	return MockItem{}, false
}

func number(vars map[string]any) int {
	f, _ := vars["number"].(float64)
	return int(f)
}

// operation names the query by the connection or field it selects
func operation(query string) string {
	switch {
	case strings.Contains(query, "search("):
		return "search"
	case strings.Contains(query, "issue(number") && strings.Contains(query, "comments("):
		return "issueComments"
	case strings.Contains(query, "pullRequest(number") && strings.Contains(query, "comments("):
		return "pullRequestComments"
	case strings.Contains(query, "issues(first"):
		return "issues"
	case strings.Contains(query, "pullRequests(first"):
		return "pullRequests"
	case strings.Contains(query, "issue(number"):
		return "issue"
	case strings.Contains(query, "pullRequest(number"):
		return "pullRequest"
	default:
		return "unknown"
	}
}

func repoOf(op string, vars map[string]any) string {
	if op == "search" {
		query, _ := vars["query"].(string)
		for _, field := range strings.Fields(query) {
			if repo, ok := strings.CutPrefix(field, "repo:"); ok {
				return repo
			}
		}
		return ""
	}
	owner, _ := vars["owner"].(string)
	name, _ := vars["name"].(string)
	return owner + "/" + name
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
