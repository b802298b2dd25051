package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SummaryMetricsRecorder records per-fragment summarization metrics. Tests
// inject their own recorder instead of the Prometheus one.
type SummaryMetricsRecorder interface {
	// RecordLength records the token length of a produced fragment.
	RecordLength(tokens int)

	// RecordLimitExceeded counts fragments that came back over budget and
	// had to be cut.
	RecordLimitExceeded()

	// RecordCompliance records whether the fragment was within budget as returned.
	RecordCompliance(withinLimit bool)

	// RecordDuration records the time taken to produce a fragment.
	RecordDuration(duration time.Duration)
}

// PrometheusSummaryMetrics is the Prometheus SummaryMetricsRecorder.
type PrometheusSummaryMetrics struct {
	lengthHistogram   prometheus.Histogram
	exceededCounter   prometheus.Counter
	complianceGauge   prometheus.Gauge
	durationHistogram prometheus.Histogram
}

var (
	prometheusMetricsInstance *PrometheusSummaryMetrics
	prometheusMetricsOnce     sync.Once
)

// register returns c, or the collector already registered under the same
// descriptor.
func register[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// NewPrometheusSummaryMetrics returns the process-wide recorder.
func NewPrometheusSummaryMetrics() *PrometheusSummaryMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusSummaryMetrics{
			lengthHistogram: register(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "digest_fragment_length_tokens",
				Help:    "Distribution of summary fragment lengths in tokens",
				Buckets: []float64{5, 10, 20, 40, 60, 80, 120, 160, 240},
			})),
			exceededCounter: register(prometheus.NewCounter(prometheus.CounterOpts{
				Name: "digest_fragment_limit_exceeded_total",
				Help: "Total number of fragments returned over their token budget",
			})),
			complianceGauge: register(prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "digest_fragment_limit_compliance",
				Help: "1 if the last fragment was within its token budget, 0 otherwise",
			})),
			durationHistogram: register(prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "digest_fragment_duration_seconds",
				Help:    "Time taken to summarize one chunk",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			})),
		}
	})
	return prometheusMetricsInstance
}

// RecordLength implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordLength(tokens int) {
	p.lengthHistogram.Observe(float64(tokens))
}

// RecordLimitExceeded implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordLimitExceeded() {
	p.exceededCounter.Inc()
}

// RecordCompliance implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordCompliance(withinLimit bool) {
	if withinLimit {
		p.complianceGauge.Set(1.0)
	} else {
		p.complianceGauge.Set(0.0)
	}
}

// RecordDuration implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}
