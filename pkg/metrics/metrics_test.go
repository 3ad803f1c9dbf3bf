package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/users", 200, 120*time.Millisecond)
	m.Observe("GET", "/api/users", 200, 80*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/users"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/users"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestRateLimitAndNotificationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rl := NewRateLimitMetrics(reg)
	notes := NewNotificationMetrics(reg)

	rl.IncRejected("auth")
	rl.IncStoreError("")
	notes.Observe("welcome", OutcomeFailed)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "rate_limit_rejected_total", "prefix", "auth"); got != 1 {
		t.Fatalf("expected 1 rejection, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "rate_limit_store_errors_total", "prefix", "unknown"); got != 1 {
		t.Fatalf("expected empty prefix normalised, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "notifications_total", "outcome", OutcomeFailed); got != 1 {
		t.Fatalf("expected 1 failed notification, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Millisecond)
	var r *RateLimitMetrics
	r.IncRejected("api")
	NewNotificationMetrics(nil).Observe("welcome", OutcomeDelivered)
	var j *JanitorMetrics
	j.Observe("sessions", time.Second, nil)
	j.AddDeleted("sessions", 3)
}

func TestJanitorMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJanitorMetrics(reg)
	m.Observe("expired-sessions", 10*time.Millisecond, nil)
	m.Observe("expired-sessions", 10*time.Millisecond, fmt.Errorf("boom"))
	m.AddDeleted("expired-sessions", 4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "janitor_job_runs_total", "outcome", "failure"); got != 1 {
		t.Fatalf("expected 1 failure, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "janitor_rows_deleted_total", "job", "expired-sessions"); got != 4 {
		t.Fatalf("expected 4 rows deleted, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
