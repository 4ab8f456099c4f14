package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	OrdersExecuted  *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	QuoteFailures   *prometheus.CounterVec
	AIRequests      *prometheus.HistogramVec
	RequestDuration *prometheus.HistogramVec
	QueueDepth      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_orders_executed_total",
				Help: "Orders filled, by side",
			},
			[]string{"side"},
		),
		OrdersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_orders_rejected_total",
				Help: "Orders rejected, by error code",
			},
			[]string{"code"},
		),
		QuoteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_quote_failures_total",
				Help: "Market data calls that returned no usable data",
			},
			[]string{"operation"},
		),
		AIRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigator_ai_request_duration_seconds",
				Help:    "AI assistant request latency",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigator_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "navigator_order_queue_depth",
				Help: "Orders waiting for a worker",
			},
		),
	}

	reg.MustRegister(
		m.OrdersExecuted,
		m.OrdersRejected,
		m.QuoteFailures,
		m.AIRequests,
		m.RequestDuration,
		m.QueueDepth,
	)
	return m
}

func (m *Metrics) OrderExecuted(side string) {
	if m != nil {
		m.OrdersExecuted.WithLabelValues(side).Inc()
	}
}

func (m *Metrics) OrderRejected(code string) {
	if m != nil {
		m.OrdersRejected.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) QuoteFailed(operation string) {
	if m != nil {
		m.QuoteFailures.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) ObserveAI(outcome string, d time.Duration) {
	if m != nil {
		m.AIRequests.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
