// Package tracing provides OpenTelemetry tracing helpers.
//
// Each document processed by the digest pipeline gets a "digest.process" span
// with child spans for classification, segmentation and every chunk
// summarization. No exporter is configured here; install a TracerProvider via
// otel.SetTracerProvider to export spans.
//
// Example usage:
//
//	import "docdigest/internal/observability/tracing"
//
//	ctx, span := tracing.StartStage(ctx, "classify", doc.ID)
//	defer span.End()
package tracing
