package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcomes recorded by Metrics.
const (
	resultValid       = "valid"
	resultInvalid     = "invalid"
	resultUnavailable = "unavailable"
	resultSkipped     = "skipped"
)

// Metrics counts validation outcomes.
type Metrics struct {
	ValidationsTotal *prometheus.CounterVec
}

// NewMetrics registers the middleware metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "covenant_validations_total",
			Help: "Total number of contract validations by message type and result",
		}, []string{"message_type", "result"}),
	}
}

func (m *Metrics) observe(messageType, result string) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(messageType, result).Inc()
}
