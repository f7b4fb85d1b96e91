package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons recorded by RegistrationsRejected.
const (
	ReasonInvalid        = "invalid"
	ReasonDuplicateName  = "duplicate_name"
	ReasonDuplicateEmail = "duplicate_email"
	ReasonLeaderNotFound = "leader_not_found"
	ReasonUnavailable    = "unavailable"
)

// Metrics provides observability for the guest registry.
type Metrics struct {
	GuestsRegistered      *prometheus.CounterVec
	RegistrationsRejected *prometheus.CounterVec
	GuestsDeleted         prometheus.Counter
	RegisterDuration      prometheus.Histogram
}

// New creates guest registry metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GuestsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestlist_guests_registered_total",
			Help: "Guests registered, by role",
		}, []string{"role"}),
		RegistrationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestlist_registrations_rejected_total",
			Help: "Registrations rejected, by reason",
		}, []string{"reason"}),
		GuestsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestlist_guests_deleted_total",
			Help: "Companions removed by organizers",
		}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestlist_register_duration_seconds",
			Help:    "Duration of Register operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistered(role string) {
	m.GuestsRegistered.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.GuestsDeleted.Inc()
}

// ObserveRegister records the duration of a Register operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}
