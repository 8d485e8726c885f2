package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HTTPError represents a non-2xx response
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string

	// Body holds the start of the response body, if any
	Body string

	// RateLimitRemaining is -1 when the provider did not report it
	RateLimitRemaining int

	// RateLimitReset is when the provider's quota window resets, zero if unknown
	RateLimitReset time.Time
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// IsRateLimited reports whether the provider rejected the request for quota reasons
func (e *HTTPError) IsRateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == http.StatusForbidden && e.RateLimitRemaining == 0
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode:         statusCode,
		URL:                url,
		Message:            message,
		RateLimitRemaining: -1,
	}
}

// AsHTTPError extracts an *HTTPError from err's chain
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func newHTTPErrorFromResponse(resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		StatusCode:         resp.StatusCode,
		URL:                resp.Request.URL.String(),
		Message:            resp.Status,
		RateLimitRemaining: -1,
	}

	if remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil {
		httpErr.RateLimitRemaining = remaining
	}
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		httpErr.RateLimitReset = time.Unix(reset, 0).UTC()
	}
	return httpErr
}
