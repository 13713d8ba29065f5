// Package metrics exposes the Prometheus collectors of the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "room_rental"

// Metrics groups every collector. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	StayTransitions *prometheus.CounterVec
	VoteUpserts     *prometheus.CounterVec
	LoginsThrottled prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		StayTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stay_transitions_total",
				Help:      "Tenancy state transitions by resulting state",
			},
			[]string{"estado"},
		),
		VoteUpserts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vote_upserts_total",
				Help:      "Rating upserts by action",
			},
			[]string{"action"},
		),
		LoginsThrottled: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_throttled_total",
				Help:      "Login attempts rejected by the failed-login throttle",
			},
		),
	}
}

func (m *Metrics) StayTransition(state string) {
	if m == nil {
		return
	}
	m.StayTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) VoteUpsert(action string) {
	if m == nil {
		return
	}
	m.VoteUpserts.WithLabelValues(action).Inc()
}

func (m *Metrics) LoginThrottled() {
	if m == nil {
		return
	}
	m.LoginsThrottled.Inc()
}
