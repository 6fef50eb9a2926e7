// Package metrics exposes the Prometheus collectors of the booking pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stayledger"

var (
	// BookingsWritten counts committed booking writes by operation (create, update, cancel).
	BookingsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_written_total",
		Help:      "Committed booking writes.",
	}, []string{"op"})

	// OverlapConflicts counts writes rejected for overlapping an active stay.
	OverlapConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "overlap_conflicts_total",
		Help:      "Booking writes rejected because the stay overlaps another booking.",
	})

	// SlicesWritten counts month slice rows inserted.
	SlicesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "month_slices_written_total",
		Help:      "Month slice rows inserted.",
	})

	// SideEffectFailures counts swallowed housekeeping failures by operation.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Best-effort side effects that failed and were skipped.",
	}, []string{"op"})

	// RefreshFailures counts failed month slice refresh attempts by outcome (retry, dead).
	RefreshFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slice_refresh_failures_total",
		Help:      "Failed month slice refresh attempts.",
	}, []string{"outcome"})

	// RefreshDuration observes how long one month slice refresh takes.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "slice_refresh_duration_seconds",
		Help:      "Duration of a month slice refresh.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
