package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// JobMetricsMeterName is the name used for the job coordinator meter
	JobMetricsMeterName = "github.com/stacklok/issue-auditor/jobs"

	// SyncMetricsMeterName is the name used for the sync client meter
	SyncMetricsMeterName = "github.com/stacklok/issue-auditor/sync"
)

// JobMetrics holds the instruments recorded by the job coordinator.
// A nil *JobMetrics is valid and records nothing.
type JobMetrics struct {
	enqueued metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

// NewJobMetrics creates a new JobMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewJobMetrics(provider metric.MeterProvider) (*JobMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(JobMetricsMeterName)

	enqueued, err := meter.Int64Counter(
		"auditor_jobs_enqueued_total",
		metric.WithDescription("Enqueue calls, split by whether an active duplicate absorbed them"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"auditor_job_duration_seconds",
		metric.WithDescription("Time from a job entering processing to its completion"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 900, 1800),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter(
		"auditor_jobs_in_flight",
		metric.WithDescription("Jobs currently executing in the worker pool"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{
		enqueued: enqueued,
		duration: duration,
		inFlight: inFlight,
	}, nil
}

// RecordEnqueue counts an enqueue request for kind
func (m *JobMetrics) RecordEnqueue(ctx context.Context, kind string, deduplicated bool) {
	if m == nil {
		return
	}
	m.enqueued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("deduplicated", deduplicated),
	))
}

// JobStarted marks one more job executing
func (m *JobMetrics) JobStarted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// JobFinished records the outcome of a job and releases its in-flight slot.
// outcome is "completed", "failed" or "interrupted".
func (m *JobMetrics) JobFinished(ctx context.Context, kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, -1, metric.WithAttributes(attribute.String("kind", kind)))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// SyncMetrics holds the instruments recorded by the sync client
type SyncMetrics struct {
	requests metric.Int64Counter
	waits    metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	requests, err := meter.Int64Counter(
		"auditor_sync_requests_total",
		metric.WithDescription("Requests issued to the issue tracker provider"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	waits, err := meter.Float64Histogram(
		"auditor_sync_rate_limit_wait_seconds",
		metric.WithDescription("Time spent waiting for the request limiter"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		requests: requests,
		waits:    waits,
	}, nil
}

// RecordRequest counts one provider request
func (m *SyncMetrics) RecordRequest(ctx context.Context, operation string, success bool) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// RecordRateLimitWait records how long a caller waited for its request slot
func (m *SyncMetrics) RecordRateLimitWait(ctx context.Context, wait time.Duration) {
	if m == nil {
		return
	}
	m.waits.Record(ctx, wait.Seconds())
}
