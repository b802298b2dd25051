package metrics

import (
	"time"
)

const (
	// OutcomeSummarized is a chunk that produced a fragment.
	OutcomeSummarized = "summarized"
	// OutcomeFailed is a chunk whose summarization failed.
	OutcomeFailed = "failed"
	// OutcomeSkipped is a chunk that was not sent to the summarizer.
	OutcomeSkipped = "skipped"
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordDocument records the final status and duration of one document.
func RecordDocument(status string, degraded bool, duration time.Duration) {
	DocumentsProcessedTotal.WithLabelValues(status).Inc()
	DocumentDuration.WithLabelValues(status).Observe(duration.Seconds())
	if degraded {
		DocumentsDegradedTotal.Inc()
	}
}

// RecordChunks records how many chunks a document was split into and how
// many of them were oversized.
func RecordChunks(count, oversized int) {
	ChunksPerDocument.Observe(float64(count))
	if oversized > 0 {
		OversizedChunksTotal.Add(float64(oversized))
	}
}

// RecordChunkOutcome records the outcome of a single chunk.
// Outcome should be one of OutcomeSummarized, OutcomeFailed or OutcomeSkipped.
func RecordChunkOutcome(outcome string) {
	ChunksTotal.WithLabelValues(outcome).Inc()
}

// RecordFailure records an absorbed failure of the given kind.
func RecordFailure(kind string) {
	PipelineFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordCategory records the canonical category assigned to a document.
func RecordCategory(canonical string) {
	CategoriesTotal.WithLabelValues(canonical).Inc()
}

// RecordCapabilityCall records the latency of a classify or summarize call.
func RecordCapabilityCall(capability string, success bool, duration time.Duration) {
	CapabilityCallDuration.WithLabelValues(capability, statusLabel(success)).Observe(duration.Seconds())
}

// RecordRecordWritten records the result of writing one record to a sink.
func RecordRecordWritten(sink string, success bool) {
	RecordsWrittenTotal.WithLabelValues(sink, statusLabel(success)).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "upsert_record").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordModelRequest records one language model API request.
func RecordModelRequest(provider string, success bool) {
	ModelRequestsTotal.WithLabelValues(provider, statusLabel(success)).Inc()
}

// RecordModelTokens adds token usage reported by a model API.
func RecordModelTokens(provider string, input, output int64) {
	if input > 0 {
		ModelTokensTotal.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		ModelTokensTotal.WithLabelValues(provider, "output").Add(float64(output))
	}
}

// RecordSourceDocument records one document read (or rejected) by a source.
func RecordSourceDocument(source string, success bool) {
	SourceDocumentsTotal.WithLabelValues(source, statusLabel(success)).Inc()
}

// SetCircuitBreakerState publishes the numeric state of a named breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
