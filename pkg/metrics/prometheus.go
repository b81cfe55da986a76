package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recordsSubmitted *prometheus.CounterVec
	recordsRejected  *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	normalizedScore  *prometheus.GaugeVec
	coalescedTotal   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recordsSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bias_records_submitted_total",
				Help: "Total number of records submitted for scoring",
			},
			[]string{"source"},
		),
		recordsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bias_records_rejected_total",
				Help: "Total number of records rejected by validation",
			},
			[]string{"kind"},
		),
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bias_scoring_runs_total",
				Help: "Total number of completed scoring runs",
			},
			[]string{"asset"},
		),
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bias_scoring_run_seconds",
				Help:    "Duration of one scoring run in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"asset"},
		),
		normalizedScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bias_normalized_score",
				Help: "Last normalized composite score per asset",
			},
			[]string{"asset"},
		),
		coalescedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bias_triggers_coalesced_total",
				Help: "Trigger requests folded into an already-pending run",
			},
			[]string{"asset"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bias_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bias_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSubmitted counts one accepted record.
func (r *Recorder) RecordSubmitted(source string) {
	r.recordsSubmitted.WithLabelValues(source).Inc()
}

// RecordRejected counts one validation rejection.
func (r *Recorder) RecordRejected(kind string) {
	r.recordsRejected.WithLabelValues(kind).Inc()
}

// RecordRun records one completed scoring run and its duration.
func (r *Recorder) RecordRun(asset string, seconds float64) {
	r.runsTotal.WithLabelValues(asset).Inc()
	r.runDuration.WithLabelValues(asset).Observe(seconds)
}

// RecordScore publishes the latest normalized score.
func (r *Recorder) RecordScore(asset string, normalized float64) {
	r.normalizedScore.WithLabelValues(asset).Set(normalized)
}

// RecordCoalesced counts a trigger folded into a pending run.
func (r *Recorder) RecordCoalesced(asset string) {
	r.coalescedTotal.WithLabelValues(asset).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
