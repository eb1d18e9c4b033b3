// Package metrics exposes Prometheus counters for the parking workflow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cinema_parking"

var (
	once sync.Once

	holdOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_requests_total",
			Help:      "Hold creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "Reservation status transitions by target status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	sweptHolds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_holds_swept_total",
			Help:      "Expired holds released by the background sweeper.",
		},
	)
)

// Register registers the collectors with the default registry. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(holdOutcomes, transitions, httpRequests, sweptHolds)
	})
}

// IncHold counts a hold attempt: created, conflict, rate_limited, not_found,
// invalid or error.
func IncHold(outcome string) {
	holdOutcomes.WithLabelValues(outcome).Inc()
}

// IncTransition counts a status change.
func IncTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// IncHTTP counts a served request.
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// AddSwept counts holds released by the sweeper.
func AddSwept(n int) {
	if n > 0 {
		sweptHolds.Add(float64(n))
	}
}
