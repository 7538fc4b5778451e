package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gutterguard/inventory/internal/domain"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the default one. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	forecastItems      *prometheus.GaugeVec
	usageCache         *prometheus.CounterVec
	orderFetchFailures prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		forecastItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "inventory_forecast_items",
				Help: "Forecast entries by category and status",
			},
			[]string{"category", "status"},
		),
		usageCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_usage_cache_total",
				Help: "Order usage summary cache lookups by result",
			},
			[]string{"result"},
		),
		orderFetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_order_fetch_failures_total",
				Help: "Failed order fetches from the store front",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventory_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.forecastItems,
		m.usageCache,
		m.orderFetchFailures,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetForecast replaces the per-status counts for one category.
func (m *Metrics) SetForecast(category string, statuses []domain.Status) {
	if m == nil {
		return
	}
	counts := make(map[domain.Status]int)
	for _, s := range statuses {
		counts[s]++
	}
	for _, s := range []domain.Status{
		domain.StatusCritical, domain.StatusOrderNow, domain.StatusLow,
		domain.StatusOK, domain.StatusNoUsage, domain.StatusCoil,
	} {
		m.forecastItems.WithLabelValues(category, string(s)).Set(float64(counts[s]))
	}
}

func (m *Metrics) UsageCacheHit() {
	if m != nil {
		m.usageCache.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) UsageCacheMiss() {
	if m != nil {
		m.usageCache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) OrderFetchFailed() {
	if m != nil {
		m.orderFetchFailures.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}
