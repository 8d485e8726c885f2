package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorIsRateLimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		remaining int
		want      bool
	}{
		{name: "too many requests", status: http.StatusTooManyRequests, remaining: -1, want: true},
		{name: "forbidden with exhausted quota", status: http.StatusForbidden, remaining: 0, want: true},
		{name: "forbidden with quota left", status: http.StatusForbidden, remaining: 12, want: false},
		{name: "forbidden without quota headers", status: http.StatusForbidden, remaining: -1, want: false},
		{name: "server error", status: http.StatusInternalServerError, remaining: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := &HTTPError{StatusCode: tt.status, RateLimitRemaining: tt.remaining}
			assert.Equal(t, tt.want, err.IsRateLimited())
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	t.Parallel()

	err := NewHTTPError(http.StatusBadGateway, "https://api.github.com/graphql", "upstream unavailable")
	assert.Equal(t, "HTTP 502 for URL https://api.github.com/graphql: upstream unavailable", err.Error())

	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, -1, httpErr.RateLimitRemaining)
	assert.True(t, httpErr.RateLimitReset.IsZero())
	assert.False(t, httpErr.IsRateLimited())
}

func TestAsHTTPErrorUnwrapsChain(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("list issues octo-org/hello-world: %w",
		NewHTTPError(http.StatusTooManyRequests, "https://api.github.com/graphql", "429 Too Many Requests"))

	httpErr, ok := AsHTTPError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)

	_, ok = AsHTTPError(errors.New("connection refused"))
	assert.False(t, ok)
}

func TestNewHTTPErrorFromResponse(t *testing.T) {
	t.Parallel()

	endpoint, err := url.Parse("https://api.github.com/graphql")
	require.NoError(t, err)

	tests := []struct {
		name          string
		headers       map[string]string
		wantRemaining int
		wantReset     time.Time
	}{
		{
			name:          "without quota headers",
			wantRemaining: -1,
		},
		{
			name: "with quota headers",
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     "1740834000",
			},
			wantRemaining: 0,
			wantReset:     time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
		},
		{
			name: "malformed quota headers",
			headers: map[string]string{
				"X-RateLimit-Remaining": "lots",
				"X-RateLimit-Reset":     "soon",
			},
			wantRemaining: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{
				StatusCode: http.StatusForbidden,
				Status:     "403 Forbidden",
				Header:     http.Header{},
				Request:    &http.Request{URL: endpoint},
			}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}

			httpErr := newHTTPErrorFromResponse(resp)
			assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
			assert.Equal(t, "https://api.github.com/graphql", httpErr.URL)
			assert.Equal(t, "403 Forbidden", httpErr.Message)
			assert.Equal(t, tt.wantRemaining, httpErr.RateLimitRemaining)
			assert.True(t, tt.wantReset.Equal(httpErr.RateLimitReset), "reset %s", httpErr.RateLimitReset)
		})
	}
}
