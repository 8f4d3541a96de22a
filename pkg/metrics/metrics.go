// Package metrics defines the Prometheus collectors used by the vectorizer
// and its services, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Components accept a nil *Metrics
// and then record nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	FitsTotal            *prometheus.CounterVec
	FitDuration          prometheus.Histogram
	PhraseTableSize      prometheus.Gauge
	FeatureCount         prometheus.Gauge
	PrunePassesTotal     prometheus.Counter
	DocsVectorizedTotal  prometheus.Counter
	TransformLatency     prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	StreamMessagesTotal  *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		FitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vhash_fits_total",
				Help: "Total fit calls by status (ok, error).",
			},
			[]string{"status"},
		),
		FitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vhash_fit_duration_seconds",
				Help:    "Wall time of a full fit in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		PhraseTableSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vhash_phrase_table_size",
				Help: "Number of phrases in the fitted table.",
			},
		),
		FeatureCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vhash_feature_count",
				Help: "Number of anchor features (output dimensions).",
			},
		),
		PrunePassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vhash_prune_passes_total",
				Help: "Live pruning passes run while building phrase tables.",
			},
		),
		DocsVectorizedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vhash_docs_vectorized_total",
				Help: "Documents turned into dense vectors by Transform.",
			},
		),
		TransformLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vhash_transform_latency_seconds",
				Help:    "Latency of a Transform batch in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vhash_cache_hits_total",
				Help: "Total number of vector cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vhash_cache_misses_total",
				Help: "Total number of vector cache misses.",
			},
		),
		StreamMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vhash_stream_messages_total",
				Help: "Kafka documents handled by status (ok, skipped, error).",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.FitsTotal,
		m.FitDuration,
		m.PhraseTableSize,
		m.FeatureCount,
		m.PrunePassesTotal,
		m.DocsVectorizedTotal,
		m.TransformLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StreamMessagesTotal,
	)

	return m
}

// Handler returns a scrape handler over g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
