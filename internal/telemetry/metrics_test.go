package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	jm, err := NewJobMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, jm)

	sm, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, sm)

	ctx := context.Background()
	jm.RecordEnqueue(ctx, "issue-fetch", false)
	jm.JobStarted(ctx, "issue-fetch")
	jm.JobFinished(ctx, "issue-fetch", "completed", time.Second)
	sm.RecordRequest(ctx, "list_issues", true)
	sm.RecordRateLimitWait(ctx, time.Millisecond)
}

func TestJobMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := NewJobMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordEnqueue(ctx, "issue-fetch", false)
	metrics.RecordEnqueue(ctx, "issue-fetch", true)
	metrics.JobStarted(ctx, "issue-fetch")
	metrics.JobFinished(ctx, "issue-fetch", "failed", 2*time.Second)

	got := collect(t, reader)

	enqueued, ok := got["auditor_jobs_enqueued_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, enqueued.DataPoints, 2)
	for _, dp := range enqueued.DataPoints {
		assert.Equal(t, int64(1), dp.Value)
	}

	inFlight, ok := got["auditor_jobs_in_flight"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inFlight.DataPoints, 1)
	assert.Equal(t, int64(0), inFlight.DataPoints[0].Value)

	duration, ok := got["auditor_job_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	dp := duration.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 2.0, dp.Sum, 0.001)
	outcome, ok := dp.Attributes.Value(attribute.Key("outcome"))
	require.True(t, ok)
	assert.Equal(t, "failed", outcome.AsString())
}

func TestSyncMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRequest(ctx, "list_issues", true)
	metrics.RecordRequest(ctx, "list_issues", true)
	metrics.RecordRateLimitWait(ctx, 250*time.Millisecond)

	got := collect(t, reader)

	requests, ok := got["auditor_sync_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 1)
	assert.Equal(t, int64(2), requests.DataPoints[0].Value)

	waits, ok := got["auditor_sync_rate_limit_wait_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, waits.DataPoints, 1)
	assert.InDelta(t, 0.25, waits.DataPoints[0].Sum, 0.001)
}
