// Package metrics provides Prometheus metrics for the zugfinder application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream provider metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamRetriesTotal    prometheus.Counter

	// Response cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Index metrics
	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	IndexEntries    prometheus.Gauge
	IndexTrains     prometheus.Gauge
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zugfinder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zugfinder_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	upstreamRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zugfinder_upstream_requests_total",
			Help: "Total number of upstream transit API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	upstreamRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zugfinder_upstream_request_duration_seconds",
			Help:    "Upstream transit API request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	upstreamRetriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zugfinder_upstream_retries_total",
		Help: "Total number of retried upstream requests",
	})

	cacheHitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zugfinder_response_cache_hits_total",
		Help: "Total number of upstream response cache hits",
	})

	cacheMissesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zugfinder_response_cache_misses_total",
		Help: "Total number of upstream response cache misses",
	})

	rebuildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zugfinder_index_rebuilds_total",
			Help: "Total number of train index rebuilds",
		},
		[]string{"outcome"},
	)

	rebuildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zugfinder_index_rebuild_duration_seconds",
		Help:    "Train index rebuild duration distribution",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	indexEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zugfinder_index_entries",
		Help: "Number of lookup keys in the published train index",
	})

	indexTrains := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zugfinder_index_trains",
		Help: "Number of distinct train numbers in the published train index",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		upstreamRequestsTotal,
		upstreamRequestDuration,
		upstreamRetriesTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		rebuildsTotal,
		rebuildDuration,
		indexEntries,
		indexTrains,
	)

	return &Metrics{
		Registry:                registry,
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPRequestDuration:     httpRequestDuration,
		UpstreamRequestsTotal:   upstreamRequestsTotal,
		UpstreamRequestDuration: upstreamRequestDuration,
		UpstreamRetriesTotal:    upstreamRetriesTotal,
		CacheHitsTotal:          cacheHitsTotal,
		CacheMissesTotal:        cacheMissesTotal,
		RebuildsTotal:           rebuildsTotal,
		RebuildDuration:         rebuildDuration,
		IndexEntries:            indexEntries,
		IndexTrains:             indexTrains,
	}
}
