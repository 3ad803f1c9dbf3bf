package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// NotificationMetrics counts best-effort email outcomes by kind.
type NotificationMetrics struct {
	outcomes *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Best-effort notification attempts by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(outcomes)
	return &NotificationMetrics{outcomes: outcomes}
}

// Observe increments the counter for kind and outcome.
func (m *NotificationMetrics) Observe(kind, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}
