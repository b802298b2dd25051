package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName names the tracer used by the digest pipeline.
const instrumentationName = "docdigest"

// GetTracer returns the tracer for creating spans. It is resolved from the
// global provider on every call so that a provider installed after start-up
// (tests, exporters) is honoured.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartStage starts a span named "digest.<stage>" carrying the document id.
func StartStage(ctx context.Context, stage, documentID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String("document.id", documentID)}, attrs...)
	return GetTracer().Start(ctx, "digest."+stage, trace.WithAttributes(attrs...))
}

// RecordError marks the span as failed without ending it.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
