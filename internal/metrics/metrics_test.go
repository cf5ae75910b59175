package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCountersAreIndependentPerInstance(t *testing.T) {
	a := New("erp")
	b := New("erp")

	a.RecordOrderConfirmed()
	a.RecordOrderConfirmed()
	b.RecordReservationFailed()

	if got := counterValue(t, a.OrdersConfirmed); got != 2 {
		t.Fatalf("expected 2 confirmed orders, got %v", got)
	}
	if got := counterValue(t, b.OrdersConfirmed); got != 0 {
		t.Fatalf("expected separate registries, got %v", got)
	}
	if got := counterValue(t, b.ReservationsFailed); got != 1 {
		t.Fatalf("expected 1 failed reservation, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/x", "200", time.Now())
	m.RecordInvoiceMatch("matched")
	m.RecordPayment(10)
}

func TestObserveRequest(t *testing.T) {
	m := New("erp")
	m.ObserveRequest("GET", "/api/v1/products", "200", time.Now())
	if got := counterValue(t, m.HttpRequestsTotal.WithLabelValues("GET", "/api/v1/products", "200")); got != 1 {
		t.Fatalf("expected one request, got %v", got)
	}
}
