package github

import (
	"context"
	"sync"
	"time"

	"github.com/stacklok/issue-auditor/internal/telemetry"
)

// DefaultMinInterval is the minimum spacing between outbound requests
const DefaultMinInterval = 500 * time.Millisecond

// Limiter spaces outbound requests at least interval apart. A single Limiter
// is shared by every client in the process, so the spacing holds across jobs.
type Limiter struct {
	interval time.Duration
	now      func() time.Time
	metrics  *telemetry.SyncMetrics

	mu sync.Mutex
	// last is the time of the most recently granted request
	last time.Time
}

// LimiterOption configures a Limiter
type LimiterOption func(*Limiter)

// WithLimiterMetrics records time spent waiting for a slot
func WithLimiterMetrics(metrics *telemetry.SyncMetrics) LimiterOption {
	return func(l *Limiter) {
		l.metrics = metrics
	}
}

// WithLimiterClock replaces time.Now
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a Limiter. A zero interval disables spacing.
func NewLimiter(interval time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		interval: max(interval, 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the configured minimum spacing
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may issue a request. The slot is reserved
// under the lock and the sleep happens outside it, so concurrent callers
// queue up one interval apart.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	slot := now
	if !l.last.IsZero() {
		if earliest := l.last.Add(l.interval); earliest.After(now) {
			slot = earliest
		}
	}
	l.last = slot
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	l.metrics.RecordRateLimitWait(ctx, wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	// A late wake-up moves the watermark to the real request time
	l.mu.Lock()
	if woke := l.now(); woke.After(l.last) {
		l.last = woke
	}
	l.mu.Unlock()
	return nil
}

// RateLimitedCall waits for a slot on limiter and then calls fn
func RateLimitedCall[T any](ctx context.Context, limiter *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := limiter.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}
