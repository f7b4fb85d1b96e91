package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for error reports.
type Metrics struct {
	ReportsFiled    prometheus.Counter
	ReportsRejected *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReportsFiled: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestlist_error_reports_filed_total",
			Help: "Error reports filed by guests",
		}),
		ReportsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestlist_error_reports_rejected_total",
			Help: "Error reports rejected, by domain error code",
		}, []string{"code"}),
	}
}

func (m *Metrics) IncrementFiled() {
	m.ReportsFiled.Inc()
}

func (m *Metrics) IncrementRejected(code string) {
	m.ReportsRejected.WithLabelValues(code).Inc()
}
