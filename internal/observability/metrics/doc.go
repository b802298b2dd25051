// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Pipeline metrics (documents, chunks, absorbed failures, categories)
//   - Capability call latency (classification, summarization)
//   - Sink and database metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "docdigest/internal/observability/metrics"
//
//	start := time.Now()
//	rec := svc.Process(ctx, doc)
//	metrics.RecordDocument(string(rec.Status), rec.Degraded(), time.Since(start))
package metrics
