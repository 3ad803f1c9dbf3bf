package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JanitorMetrics records cleanup job runs.
type JanitorMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	removed  *prometheus.CounterVec
}

func NewJanitorMetrics(reg prometheus.Registerer) *JanitorMetrics {
	if reg == nil {
		return &JanitorMetrics{}
	}
	m := &JanitorMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "janitor_job_duration_seconds",
			Help:    "Cleanup job duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_job_runs_total",
			Help: "Cleanup job runs by outcome.",
		}, []string{"job", "outcome"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "janitor_rows_deleted_total",
			Help: "Rows removed by cleanup jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.removed)
	return m
}

func (m *JanitorMetrics) Observe(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
	m.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

func (m *JanitorMetrics) AddDeleted(job string, rows int64) {
	if m == nil || m.removed == nil || rows <= 0 {
		return
	}
	m.removed.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
