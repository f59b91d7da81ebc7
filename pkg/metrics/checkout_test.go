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
	metrics.IncOrderCreated("BRIVA")
	metrics.IncCallback("PAID")
	metrics.IncCompensation()
	metrics.ObserveCheckout(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "method", "BRIVA"); err != nil {
		t.Fatalf("fetch orders: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_callbacks_total", "status", "PAID"); err != nil {
		t.Fatalf("fetch callbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected callbacks=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "checkout_compensations_total"); mf == nil {
		t.Fatal("compensation counter not registered")
	} else if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected compensations=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "checkout_duration_seconds"); mf == nil {
		t.Fatal("duration histogram not registered")
	} else if got := mf.GetMetric()[0].GetHistogram().GetSampleSum(); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.IncOrderCreated("BRIVA")
	metrics.IncCallback("PAID")
	metrics.IncCompensation()
	metrics.ObserveCheckout(time.Second)
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
