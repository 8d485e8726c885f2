// Package otel provides OpenTelemetry span helpers shared by the coordinator,
// the handlers and the sync client.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used across the application's spans.
const (
	AttrJobID         = attribute.Key("job.id")
	AttrJobKind       = attribute.Key("job.kind")
	AttrTargetID      = attribute.Key("target.id")
	AttrTargetName    = attribute.Key("target.name")
	AttrSyncOperation = attribute.Key("sync.operation")
	AttrPageSize      = attribute.Key("pagination.limit")
	AttrHasCursor     = attribute.Key("pagination.has_cursor")
	AttrResultCount   = attribute.Key("result.count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already in ctx (a no-op span when there is none).
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed.
// The status description stays generic; details live in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
