package catalogueloader

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Cache metrics
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "libload_catalogue_cache_hits_total",
		Help: "Total number of catalogue cache hits",
	})

	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "libload_catalogue_cache_misses_total",
		Help: "Total number of catalogue cache misses",
	})

	cacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "libload_catalogue_cache_evictions_total",
		Help: "Total number of catalogue cache evictions",
	})

	cacheEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "libload_catalogue_cache_entries",
		Help: "Current number of entries in the catalogue cache",
	})

	// Fetch metrics
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "libload_catalogue_fetch_duration_seconds",
		Help:    "Duration of catalogue fetch operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"type", "status"})

	fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "libload_catalogue_fetch_total",
		Help: "Total number of catalogue fetch operations",
	}, []string{"type", "status"})

	compileErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "libload_catalogue_compile_errors_total",
		Help: "Total number of catalogue definitions rejected while compiling",
	})
)

func init() {
	// Register all metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEvictionsTotal,
		cacheEntriesGauge,
		fetchDuration,
		fetchTotal,
		compileErrorsTotal,
	)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	cacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	cacheMissesTotal.Inc()
}

// RecordCacheEviction records a cache eviction
func RecordCacheEviction() {
	cacheEvictionsTotal.Inc()
}

func updateCacheEntries(entries int) {
	cacheEntriesGauge.Set(float64(entries))
}

// RecordFetch records a fetch operation
func RecordFetch(fetcherType string, status string, durationSeconds float64) {
	fetchDuration.WithLabelValues(fetcherType, status).Observe(durationSeconds)
	fetchTotal.WithLabelValues(fetcherType, status).Inc()
}

// RecordCompileError records a definition that failed to compile or validate
func RecordCompileError() {
	compileErrorsTotal.Inc()
}
