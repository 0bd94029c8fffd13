// Package metrics holds the Prometheus collectors for the viewer and the
// content API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each
// collector owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Viewer metrics
	Fetches      *prometheus.CounterVec
	Ticks        prometheus.Counter
	Alpha        prometheus.Gauge
	Nodes        prometheus.Gauge
	Links        prometheus.Gauge
	DroppedLinks prometheus.Counter
	Drags        *prometheus.CounterVec
}

// NewCollector creates and registers all metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_fetches_total",
			Help:      "Graph snapshot fetches by outcome",
		}, []string{"outcome"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_ticks_total",
			Help:      "Layout simulation ticks run",
		}),
		Alpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_alpha",
			Help:      "Current simulation energy",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the mounted graph",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Resolved links in the mounted graph",
		}),
		DroppedLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_dropped_links_total",
			Help:      "Links dropped for referencing unknown nodes",
		}),
		Drags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_events_total",
			Help:      "Node drag events by phase",
		}, []string{"phase"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.Fetches, c.Ticks, c.Alpha, c.Nodes, c.Links, c.DroppedLinks, c.Drags,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
