// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track per-document and per-chunk processing
var (
	// DocumentsProcessedTotal counts documents by final status (processed, skipped)
	DocumentsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_documents_total",
			Help: "Total number of documents handled by the digest pipeline",
		},
		[]string{"status"},
	)

	// DocumentsDegradedTotal counts documents whose record carries a fallback value
	DocumentsDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_documents_degraded_total",
			Help: "Total number of documents with at least one fallback value",
		},
	)

	// DocumentDuration measures end-to-end processing time per document
	DocumentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_document_duration_seconds",
			Help:    "Time spent processing a single document",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	// ChunksPerDocument observes how many chunks each document was split into
	ChunksPerDocument = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_chunks_per_document",
			Help:    "Number of chunks produced per document",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	// ChunksTotal counts chunks by outcome (summarized, failed, skipped)
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_chunks_total",
			Help: "Total number of chunks by outcome",
		},
		[]string{"outcome"},
	)

	// OversizedChunksTotal counts unsplittable chunks over budget
	OversizedChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_oversized_chunks_total",
			Help: "Total number of single-word chunks exceeding the token budget",
		},
	)

	// PipelineFailuresTotal counts absorbed failures by kind
	PipelineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_failures_total",
			Help: "Total number of absorbed pipeline failures by kind",
		},
		[]string{"kind"},
	)

	// CategoriesTotal counts classified documents by canonical category
	CategoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_categories_total",
			Help: "Total number of documents per canonical category",
		},
		[]string{"category"},
	)
)

// Capability metrics track classifier and summarizer calls
var (
	// CapabilityCallDuration measures classify/summarize call latency
	CapabilityCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_capability_call_duration_seconds",
			Help:    "Duration of classification and summarization calls",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"capability", "status"},
	)
)

// Sink metrics track record persistence
var (
	// RecordsWrittenTotal counts records written per sink
	RecordsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_records_written_total",
			Help: "Total number of records written by sink",
		},
		[]string{"sink", "status"},
	)

	// DBQueryDuration measures database query duration in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// External dependency metrics track model APIs, sources and circuit breakers
var (
	// ModelRequestsTotal counts language model API requests by provider and status
	ModelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_model_requests_total",
			Help: "Total number of language model API requests",
		},
		[]string{"provider", "status"},
	)

	// ModelTokensTotal counts tokens reported by model APIs (direction: input, output)
	ModelTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_model_tokens_total",
			Help: "Total number of tokens consumed by language model API requests",
		},
		[]string{"provider", "direction"},
	)

	// SourceDocumentsTotal counts documents read per source kind (dir, html, feed)
	SourceDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_source_documents_total",
			Help: "Total number of documents read from sources",
		},
		[]string{"source", "status"},
	)

	// CircuitBreakerState reports breaker state (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digest_circuit_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
