package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Per-user index Prometheus metrics. No label carries a user identity.
var (
	IndexHandlesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_handles_open",
			Help:      "Number of per-user indexes currently open",
		},
	)

	IndexOpensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_opens_total",
			Help:      "Per-user index open attempts",
		},
		[]string{"result"}, // "created" / "opened" / "error"
	)

	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_operations_total",
			Help:      "Index manager operations by outcome",
		},
		[]string{"operation", "status"},
	)

	IndexOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_operation_duration_seconds",
			Help:      "Index manager operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	IndexWriterWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_writer_wait_seconds",
			Help:      "Time spent waiting for a per-user writer slot",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter",
		},
	)
)

var registerIndexOnce sync.Once

// RegisterIndexMetrics registers the index metrics with the default registry.
// Safe to call more than once.
func RegisterIndexMetrics() {
	registerIndexOnce.Do(func() {
		prometheus.MustRegister(
			IndexHandlesOpen,
			IndexOpensTotal,
			IndexOperationsTotal,
			IndexOperationDuration,
			IndexWriterWaitSeconds,
			RateLimitedTotal,
		)
	})
}
