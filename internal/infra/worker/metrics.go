package worker

import (
	"docdigest/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the digest worker.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// metrics for scheduled digest runs.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp, worker_config_validation_errors_total,
//     worker_config_fallbacks_total, worker_config_fallback_active
//
// Worker-specific metrics:
//   - worker_digest_runs_total: Total runs by status (started/success/failure)
//   - worker_digest_run_duration_seconds: Duration histogram of runs
//   - worker_digest_documents_total: Documents handled by outcome
//     (processed/skipped/degraded/already_digested)
//   - worker_digest_last_success_timestamp: Unix timestamp of last successful run
type WorkerMetrics struct {
	*config.ConfigMetrics

	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   prometheus.Histogram
	DocumentsTotal       *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates WorkerMetrics registered with the default
// Prometheus registry. Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the metrics with reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(factory, "worker"),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_digest_runs_total",
			Help: "Total number of digest runs by status (started/success/failure)",
		}, []string{"status"}),

		RunDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_digest_run_duration_seconds",
			Help:    "Duration of digest runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		DocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_digest_documents_total",
			Help: "Documents handled by the worker by outcome",
		}, []string{"outcome"}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_digest_last_success_timestamp",
			Help: "Unix timestamp of the last successful digest run",
		}),
	}
}

// RecordRun increments the run counter for status.
func (m *WorkerMetrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes the duration of a run in seconds.
func (m *WorkerMetrics) RecordRunDuration(seconds float64) {
	m.RunDurationSeconds.Observe(seconds)
}

// RecordDocuments adds count documents under outcome. Zero counts are
// ignored.
func (m *WorkerMetrics) RecordDocuments(outcome string, count int) {
	if count <= 0 {
		return
	}
	m.DocumentsTotal.WithLabelValues(outcome).Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
