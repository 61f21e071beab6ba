// Package metrics provides Prometheus metrics for the import pipeline:
// row counters by outcome, batch write counters and latency, and invocation
// durations. Metrics register automatically on first use via promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsProcessed tracks rows read from spreadsheets by validation outcome.
	// Labels: status (valid/invalid)
	//
	// Example:
	//	metrics.RowsProcessed.WithLabelValues("valid").Add(42)
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsink_rows_processed_total",
			Help: "Total number of spreadsheet rows processed",
		},
		[]string{"status"},
	)

	// BatchWrites tracks store batch write calls by outcome.
	// Labels: status (success/failure)
	BatchWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsink_batch_writes_total",
			Help: "Total number of store batch write calls",
		},
		[]string{"status"},
	)

	// ItemsWritten tracks items committed to the store.
	ItemsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsink_items_written_total",
			Help: "Total number of items written to the store",
		},
	)

	// BatchWriteLatency tracks the distribution of batch write durations.
	BatchWriteLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sheetsink_batch_write_duration_seconds",
			Help: "Batch write latency in seconds",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
			},
		},
	)

	// Invocations tracks pipeline invocations by terminal outcome.
	// Labels: outcome (completed/terminated/failed)
	Invocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsink_invocations_total",
			Help: "Total number of pipeline invocations",
		},
		[]string{"outcome"},
	)

	// InvocationDuration tracks end-to-end invocation durations.
	InvocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sheetsink_invocation_duration_seconds",
			Help: "End-to-end invocation duration in seconds",
			Buckets: []float64{
				0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
			},
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveSeconds records the elapsed time into a histogram and returns it.
func (t *Timer) ObserveSeconds(h prometheus.Histogram) time.Duration {
	elapsed := time.Since(t.start)
	h.Observe(elapsed.Seconds())
	return elapsed
}
