package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons recorded by AuthFailures.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonInvalidToken       = "invalid_token"
	ReasonExpired            = "expired"
	ReasonUnavailable        = "provider_unavailable"
	ReasonCircuitOpen        = "circuit_open"
)

// Metrics provides observability for the auth gate.
type Metrics struct {
	LoginsSucceeded prometheus.Counter
	AuthFailures    *prometheus.CounterVec
	CircuitOpen     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestlist_auth_logins_total",
			Help: "Successful organizer logins",
		}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestlist_auth_failures_total",
			Help: "Failed logins and session checks, by reason",
		}, []string{"operation", "reason"}),
		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "guestlist_auth_circuit_open",
			Help: "1 while the identity provider circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementLogin() {
	m.LoginsSucceeded.Inc()
}

func (m *Metrics) IncrementFailure(operation, reason string) {
	m.AuthFailures.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
