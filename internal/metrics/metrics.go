package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several instances can coexist in tests.
// Every method is safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	AuthAttemptsCounter *prometheus.CounterVec

	DocumentsCounter    *prometheus.CounterVec
	OrdersConfirmed     prometheus.Counter
	ReservationsFailed  prometheus.Counter
	StockMovements      *prometheus.CounterVec
	InvoiceMatchCounter *prometheus.CounterVec
	PaymentsAmount      prometheus.Counter
}

func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HttpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HttpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		AuthAttemptsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		DocumentsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_documents_created_total",
			Help: "Business documents created by kind",
		}, []string{"kind"}),
		OrdersConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_orders_confirmed_total",
			Help: "Sales orders confirmed",
		}),
		ReservationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_stock_reservations_failed_total",
			Help: "Stock reservations refused for lack of available quantity",
		}),
		StockMovements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_stock_movements_total",
			Help: "Stock movements recorded by type",
		}, []string{"type"}),
		InvoiceMatchCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_supplier_invoice_matches_total",
			Help: "Three-way match results by status",
		}, []string{"status"}),
		PaymentsAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_payments_amount_total",
			Help: "Sum of customer payments recorded",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path, status string, started time.Time) {
	if m == nil {
		return
	}
	m.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HttpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsCounter.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDocument(kind string) {
	if m == nil {
		return
	}
	m.DocumentsCounter.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordOrderConfirmed() {
	if m == nil {
		return
	}
	m.OrdersConfirmed.Inc()
}

func (m *Metrics) RecordReservationFailed() {
	if m == nil {
		return
	}
	m.ReservationsFailed.Inc()
}

func (m *Metrics) RecordMovement(movementType string) {
	if m == nil {
		return
	}
	m.StockMovements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) RecordInvoiceMatch(status string) {
	if m == nil {
		return
	}
	m.InvoiceMatchCounter.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordPayment(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.PaymentsAmount.Add(amount)
}
