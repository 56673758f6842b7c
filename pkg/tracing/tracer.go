// Package tracing provides the shared OTel tracer helper used by the retrieval
// and unlock services.
//
// When no TracerProvider is registered (tests, or local dev without an OTLP
// endpoint) the global no-op provider is used automatically and all calls are
// inert. Domain packages call tracing.Start rather than the OTel API directly.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "arvault"

// Start creates a new OTel span as a child of the span in ctx, or a root span
// when ctx carries no active span (a retrieval job invoked outside a request).
// The caller MUST call span.End() when the operation is done, typically via
// defer span.End().
func Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}
