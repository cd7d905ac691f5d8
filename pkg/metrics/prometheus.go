package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsReceived    *prometheus.CounterVec
	deliveries         *prometheus.CounterVec
	enrichmentFailures *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	latency            *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigmapips_signals_received_total",
				Help: "Total number of trading signals received",
			},
			[]string{"instrument", "timeframe"},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigmapips_deliveries_total",
				Help: "Total number of per-subscriber delivery attempts",
			},
			[]string{"instrument", "result"},
		),
		enrichmentFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigmapips_enrichment_failures_total",
				Help: "Total number of failed enrichment calls",
			},
			[]string{"source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigmapips_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigmapips_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalReceived records an accepted trading signal.
func (r *Recorder) RecordSignalReceived(instrument, timeframe string) {
	r.signalsReceived.WithLabelValues(instrument, timeframe).Inc()
}

// RecordDelivery records a delivery attempt outcome ("sent" or "failed").
func (r *Recorder) RecordDelivery(instrument, result string) {
	r.deliveries.WithLabelValues(instrument, result).Inc()
}

// RecordEnrichmentFailure records a failed enrichment call by source.
func (r *Recorder) RecordEnrichmentFailure(source string) {
	r.enrichmentFailures.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
