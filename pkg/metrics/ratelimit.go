package metrics

import "github.com/prometheus/client_golang/prometheus"

// RateLimitMetrics counts rejected requests per limiter prefix.
type RateLimitMetrics struct {
	rejected *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

func NewRateLimitMetrics(reg prometheus.Registerer) *RateLimitMetrics {
	if reg == nil {
		return &RateLimitMetrics{}
	}
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejected_total",
		Help: "Requests rejected by the rate limiter.",
	}, []string{"prefix"})
	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_store_errors_total",
		Help: "Rate limit store failures. Requests are allowed through on failure.",
	}, []string{"prefix"})
	reg.MustRegister(rejected, errors)
	return &RateLimitMetrics{rejected: rejected, errors: errors}
}

func (m *RateLimitMetrics) IncRejected(prefix string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(prefix)).Inc()
}

func (m *RateLimitMetrics) IncStoreError(prefix string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeLabel(prefix)).Inc()
}
