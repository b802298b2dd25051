// Package observability groups the logging, metrics and tracing support used
// by the digest pipeline and its binaries.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry span helpers
//
// Example usage:
//
//	import (
//	    "docdigest/internal/observability/logging"
//	    "docdigest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordChunkOutcome(metrics.OutcomeSummarized)
//	}
package observability
