package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDiscountMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDiscountMetrics(reg)
	metrics.AddReconstructed("bxgy_bundle", 2)
	metrics.AddReconstructed("", 1)
	metrics.AddUnresolvedLines(3)
	metrics.ObserveReport("usage", 150*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "discount_usage_reconstructed_total", "kind", "bxgy_bundle"); err != nil {
		t.Fatalf("fetch reconstructed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected reconstructed=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "discount_usage_reconstructed_total", "kind", "unknown"); err != nil {
		t.Fatalf("fetch unknown kind: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "discount_usage_unresolved_lines_total")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("unresolved counter missing")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected unresolved=3, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "discount_report_duration_seconds", "report", "usage"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDiscountMetricsNilSafe(t *testing.T) {
	var metrics *DiscountMetrics
	metrics.AddReconstructed("coupon", 1)
	metrics.AddUnresolvedLines(1)
	metrics.ObserveReport("metrics", time.Second)

	unregistered := NewDiscountMetrics(nil)
	unregistered.AddReconstructed("coupon", 1)
	unregistered.AddUnresolvedLines(1)
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
