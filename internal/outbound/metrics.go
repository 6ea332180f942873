package outbound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts physical sends per provider.
type Metrics struct {
	sends  *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics registers the outbound counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "outbound",
			Name:      "sends_total",
			Help:      "Physical send calls that succeeded, by provider.",
		}, []string{"provider"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "outbound",
			Name:      "send_errors_total",
			Help:      "Physical send calls that failed, by provider.",
		}, []string{"provider"}),
	}
}

func (m *Metrics) sendOK(id string) {
	if m != nil {
		m.sends.WithLabelValues(id).Inc()
	}
}

func (m *Metrics) sendErr(id string) {
	if m != nil {
		m.errors.WithLabelValues(id).Inc()
	}
}
