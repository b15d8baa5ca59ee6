// Package telemetry exposes Prometheus metrics for the console: HTTP request
// counters and latencies plus business counters for billing, pharmacy and
// emergency discharge. A nil *Metrics is valid and records nothing, so
// services can be used without metrics in tests.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hms"

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	billed     *prometheus.CounterVec
	billedGdes *prometheus.CounterVec
	payments   *prometheus.CounterVec
	paidGdes   *prometheus.CounterVec
	dispensed  *prometheus.CounterVec
	discharged prometheus.Counter
	lowStock   prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		billed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "transactions_recorded_total",
			Help:      "Billable transactions recorded by category.",
		}, []string{"category"}),
		billedGdes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "recorded_gdes_total",
			Help:      "Amount billed in Gdes by category.",
		}, []string{"category"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payments_total",
			Help:      "Transactions paid by payment method.",
		}, []string{"method"}),
		paidGdes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "paid_gdes_total",
			Help:      "Amount collected in Gdes by payment method.",
		}, []string{"method"}),
		dispensed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pharmacy",
			Name:      "lines_dispensed_total",
			Help:      "Prescription lines dispensed by mode (full, partial, emergency).",
		}, []string{"mode"}),
		discharged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "emergency",
			Name:      "discharges_total",
			Help:      "Emergency episodes closed after full payment.",
		}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pharmacy",
			Name:      "low_stock_items",
			Help:      "Stock items at or below their alert threshold.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency,
		m.billed, m.billedGdes, m.payments, m.paidGdes,
		m.dispensed, m.discharged, m.lowStock,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by route template rather than raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// TransactionRecorded counts a new billable transaction.
func (m *Metrics) TransactionRecorded(category string, amount float64) {
	if m == nil {
		return
	}
	m.billed.WithLabelValues(category).Inc()
	m.billedGdes.WithLabelValues(category).Add(amount)
}

// PaymentCollected counts a transaction moving to paid.
func (m *Metrics) PaymentCollected(method string, amount float64) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(method).Inc()
	m.paidGdes.WithLabelValues(method).Add(amount)
}

// Dispensed counts prescription lines handed out.
func (m *Metrics) Dispensed(mode string, lines int) {
	if m == nil || lines <= 0 {
		return
	}
	m.dispensed.WithLabelValues(mode).Add(float64(lines))
}

// EpisodeDischarged counts a closed emergency episode.
func (m *Metrics) EpisodeDischarged() {
	if m == nil {
		return
	}
	m.discharged.Inc()
}

// SetLowStock publishes the current number of low stock items.
func (m *Metrics) SetLowStock(n int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(n))
}
