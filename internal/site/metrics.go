package site

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sebasite/internal/admin"
	"sebasite/internal/datasource"
)

// Metrics holds the site's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	writes         *prometheus.CounterVec
	degradedWrites *prometheus.CounterVec
	fallbackReads  *prometheus.CounterVec
}

// NewMetrics registers the site collectors plus Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sebasite",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sebasite",
			Name:      "admin_writes_total",
			Help:      "Completed admin writes by collection and action.",
		}, []string{"collection", "action"}),
		degradedWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sebasite",
			Name:      "degraded_writes_total",
			Help:      "Admin writes applied to the local cache only because the record store failed.",
		}, []string{"collection", "action"}),
		fallbackReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sebasite",
			Name:      "fallback_reads_total",
			Help:      "Collection reads served from the local cache.",
		}, []string{"collection"}),
	}
	reg.MustRegister(
		m.requests,
		m.writes,
		m.degradedWrites,
		m.fallbackReads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteCompleted implements admin.Observer.
func (m *Metrics) WriteCompleted(kind admin.Kind, action admin.Action, degraded bool) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(string(kind), string(action)).Inc()
	if degraded {
		m.degradedWrites.WithLabelValues(string(kind), string(action)).Inc()
	}
}

func (m *Metrics) observeRequest(route, method string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeSource(collection string, source datasource.Source) {
	if m == nil || source != datasource.SourceLocal {
		return
	}
	m.fallbackReads.WithLabelValues(collection).Inc()
}
