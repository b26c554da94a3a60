package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction pipeline.
type Metrics struct {
	Registry              *prometheus.Registry
	PagesFetchedTotal     prometheus.Counter
	FetchDuration         prometheus.Histogram
	FetchErrorsTotal      *prometheus.CounterVec
	RecordsExtractedTotal prometheus.Counter
	RunsTotal             *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pagesFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlist_pages_fetched_total",
			Help: "Total listing pages fetched successfully.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wishlist_fetch_duration_seconds",
			Help:    "Latency of listing page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_fetch_errors_total",
			Help: "Total failed page fetches by category.",
		},
		[]string{"category"},
	)
	recordsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wishlist_records_extracted_total",
			Help: "Total book records extracted from listing pages.",
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_runs_total",
			Help: "Total extraction runs by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(pagesFetched, fetchDuration, fetchErrors, recordsExtracted, runs)

	return &Metrics{
		Registry:              registry,
		PagesFetchedTotal:     pagesFetched,
		FetchDuration:         fetchDuration,
		FetchErrorsTotal:      fetchErrors,
		RecordsExtractedTotal: recordsExtracted,
		RunsTotal:             runs,
	}
}

// IncPageFetched increments the successful page counter.
func (m *Metrics) IncPageFetched() {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.Inc()
}

// ObserveFetchDuration records one fetch latency.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncFetchError increments the error counter for a category label.
func (m *Metrics) IncFetchError(category string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(category).Inc()
}

// AddRecords adds to the extracted record counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsExtractedTotal.Add(float64(n))
}

// IncRun increments the run counter for an outcome label.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}
