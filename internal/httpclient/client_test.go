package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantBody   string
		wantStatus int
		wantErr    string
	}{
		{
			name: "graphql data",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"repository":{"issues":{"nodes":[]}}}}`))
			},
			wantBody: `{"data":{"repository":{"issues":{"nodes":[]}}}}`,
		},
		{
			name: "accepted without content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
			wantBody: "",
		},
		{
			name: "bad credentials",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "HTTP 401",
		},
		{
			name: "bad gateway",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantErr:    "502 Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			body, err := NewDefaultClient(0).PostJSON(context.Background(), server.URL, graphQLRequest{Query: "query { viewer { login } }"})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				httpErr, ok := AsHTTPError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
				assert.Equal(t, server.URL, httpErr.URL)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestPostJSONSendsGraphQLRequest(t *testing.T) {
	t.Parallel()

	var (
		got     graphQLRequest
		headers http.Header
		method  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	_, err := NewDefaultClient(time.Second).PostJSON(context.Background(), server.URL, graphQLRequest{
		Query:     "query($owner: String!) { repository(owner: $owner) { id } }",
		Variables: map[string]any{"owner": "octo-org", "first": 50},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, UserAgent, headers.Get("User-Agent"))
	assert.Contains(t, got.Query, "repository(owner: $owner)")
	assert.Equal(t, "octo-org", got.Variables["owner"])
	assert.InDelta(t, 50, got.Variables["first"], 0)
}

func TestPostJSONRateLimited(t *testing.T) {
	t.Parallel()

	reset := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1740834000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer server.Close()

	_, err := NewDefaultClient(0).PostJSON(context.Background(), server.URL, graphQLRequest{Query: "query { rateLimit { remaining } }"})
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)

	assert.True(t, httpErr.IsRateLimited())
	assert.Equal(t, 0, httpErr.RateLimitRemaining)
	assert.True(t, reset.Equal(httpErr.RateLimitReset))
	assert.Contains(t, httpErr.Body, "API rate limit exceeded")
}

func TestPostJSONBoundsErrorBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	_, err := NewDefaultClient(0).PostJSON(context.Background(), server.URL, graphQLRequest{})
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Len(t, httpErr.Body, 512)
}

func TestPostJSONRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewDefaultClient(0).PostJSON(context.Background(), "http://127.0.0.1:1", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode request body")
}

func TestPostJSONResponseSizeLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "declared content length",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "20971521")
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "streamed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				chunk := []byte(strings.Repeat("a", 1024*1024))
				for range 21 {
					if _, err := w.Write(chunk); err != nil {
						return
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewDefaultClient(0).PostJSON(context.Background(), server.URL, graphQLRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exceeds maximum allowed size")
		})
	}
}

func TestPostJSONHonoursContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client hanging up
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewDefaultClient(0).PostJSON(ctx, server.URL, graphQLRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientKeepsBearerTransport(t *testing.T) {
	t.Parallel()

	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "gho_secret"}))
	client := NewClient(httpClient)

	_, err := client.PostJSON(context.Background(), server.URL, graphQLRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer gho_secret", auth)
	assert.Equal(t, DefaultTimeout, httpClient.Timeout)
}

func TestNewClientNilUsesDefault(t *testing.T) {
	t.Parallel()

	client, ok := NewClient(nil).(*DefaultClient)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, client.client.Timeout)
}

func TestGet(t *testing.T) {
	t.Parallel()

	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		if r.URL.Path == "/v1/targets/missing/status" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"target not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"completed"}`)
	}))
	defer server.Close()

	client := NewDefaultClient(time.Second)

	body, err := client.Get(context.Background(), server.URL+"/v1/targets/t1/status")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, method)
	assert.JSONEq(t, `{"status":"completed"}`, string(body))

	_, err = client.Get(context.Background(), server.URL+"/v1/targets/missing/status")
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.JSONEq(t, `{"error":"target not found"}`, httpErr.Body)
}
