// Package metrics defines the Prometheus collectors used by the search
// server and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	MatchQueriesTotal    *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocsIndexedTotal     prometheus.Counter
	DocsRemovedTotal     prometheus.Counter
	IndexDocumentCount   prometheus.Gauge
	IngestionEventsTotal *prometheus.CounterVec
	LoaderRowsTotal      *prometheus.CounterVec
	BatchQueriesTotal    prometheus.Counter
}

// New creates all collectors and registers them with reg. A nil reg uses
// the global default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total top-documents queries by policy and result type (hit, zero_result, error).",
			},
			[]string{"policy", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Top-documents query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"policy"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		MatchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_queries_total",
				Help: "Total match-document requests by policy and status (ok, error).",
			},
			[]string{"policy", "status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_removed_total",
				Help: "Total documents removed.",
			},
		),
		IndexDocumentCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_document_count",
				Help: "Number of documents currently in the index.",
			},
		),
		IngestionEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestion_events_total",
				Help: "Document events consumed by operation and status.",
			},
			[]string{"op", "status"},
		),
		LoaderRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loader_rows_total",
				Help: "Rows read by the bootstrap loader by status (indexed, skipped).",
			},
			[]string{"status"},
		),
		BatchQueriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "batch_queries_total",
				Help: "Total queries processed through batch requests.",
			},
		),
	}

	reg.MustRegister(
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.MatchQueriesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIndexedTotal,
		m.DocsRemovedTotal,
		m.IndexDocumentCount,
		m.IngestionEventsTotal,
		m.LoaderRowsTotal,
		m.BatchQueriesTotal,
	)

	return m
}

// Handler returns the scrape handler for g, or for the default gatherer
// when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
