// Package observability provides Prometheus metrics, OpenTelemetry tracing
// and the HTTP and graph session instrumentation built on them.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	EntriesCreated   prometheus.Counter
	EntriesDeleted   prometheus.Counter
	RelationsCreated *prometheus.CounterVec
	RelationsDeleted *prometheus.CounterVec

	// Graph database metrics
	GraphOperations *prometheus.CounterVec
	GraphDuration   *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry. Process and Go
// runtime collectors are registered as well.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		EntriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_created_total",
			Help:      "Total number of account entries created",
		}),
		EntriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_deleted_total",
			Help:      "Total number of account entries deleted",
		}),
		RelationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relations_created_total",
				Help:      "Total number of relation create or update calls",
			},
			[]string{"kind"},
		),
		RelationsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relations_deleted_total",
				Help:      "Total number of relations deleted",
			},
			[]string{"kind"},
		),
		GraphOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_operations_total",
				Help:      "Total number of graph database transactions",
			},
			[]string{"operation", "mode", "status"},
		),
		GraphDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_operation_duration_seconds",
				Help:      "Graph database transaction duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "mode"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.EntriesCreated,
		c.EntriesDeleted,
		c.RelationsCreated,
		c.RelationsDeleted,
		c.GraphOperations,
		c.GraphDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// EntryCreated counts a created entry.
func (c *Collector) EntryCreated() { c.EntriesCreated.Inc() }

// EntryDeleted counts a deleted entry.
func (c *Collector) EntryDeleted() { c.EntriesDeleted.Inc() }

// RelationCreated counts a merged relation.
func (c *Collector) RelationCreated(kind string) { c.RelationsCreated.WithLabelValues(kind).Inc() }

// RelationDeleted counts a removed relation.
func (c *Collector) RelationDeleted(kind string) { c.RelationsDeleted.WithLabelValues(kind).Inc() }

// RecordGraphOperation records one graph transaction.
func (c *Collector) RecordGraphOperation(operation, mode, status string, duration time.Duration) {
	c.GraphOperations.WithLabelValues(operation, mode, status).Inc()
	c.GraphDuration.WithLabelValues(operation, mode).Observe(duration.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
