package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.IncAttempt("committed")
	metrics.IncAttempt("committed")
	metrics.IncAttempt("rolled_back")
	metrics.ObserveGateway("card", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_attempts_total", "outcome", "committed"); err != nil {
		t.Fatalf("fetch committed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected committed=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_attempts_total", "outcome", "rolled_back"); err != nil {
		t.Fatalf("fetch rolled_back: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rolled_back=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "payment_gateway_duration_seconds", "provider", "card"); err != nil {
		t.Fatalf("fetch gateway duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.IncAttempt("committed")
	metrics.ObserveGateway("card", time.Second)

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncAttempt("")
	unregistered.ObserveGateway("", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if metricHasLabel(metric, label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if metricHasLabel(metric, label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func metricHasLabel(metric *dto.Metric, label, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}
