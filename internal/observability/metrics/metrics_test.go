package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFlowMetricsObserve(t *testing.T) {
	m := NewFlowMetrics(prometheus.NewRegistry())
	m.ObserveTransition("summary", "submitting")
	m.ObserveCheckoutSession("created", false)
	m.ObserveSessionInvalidated()
	m.ObservePaymentReturn("cancelled")
	m.ObserveBookingCreate("public", "ok")
	m.ObserveBatchDelete("failed")
}

func TestFlowMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFlowMetrics(reg)
	m.ObservePaymentReturn("success")
	m.ObservePaymentReturn("success")
	m.ObservePaymentReturn("cancelled")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var fam *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "bookingflow_payments_returns_total" {
			fam = f
		}
	}
	if fam == nil {
		t.Fatal("returns_total family not registered")
	}
	total := 0.0
	for _, metric := range fam.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	if total != 3 {
		t.Fatalf("expected 3 observations, got %v", total)
	}
}

func TestFlowMetricsNilSafe(t *testing.T) {
	var m *FlowMetrics
	m.ObserveTransition("a", "b")
	m.ObserveCheckoutSession("failed", true)
	m.ObserveSessionInvalidated()
	m.ObservePaymentReturn("success")
	m.ObserveBookingCreate("admin", "error")
	m.ObserveBatchDelete("ok")
}
