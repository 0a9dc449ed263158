package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapleads_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapleads_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "path"},
	)

	bucketFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapleads_bucket_fetch_total",
			Help: "Category bucket fetches by outcome",
		},
		[]string{"bucket", "status"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapleads_upstream_request_duration_seconds",
			Help:    "Latency of calls to places, geocoding and overpass providers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapleads_cache_lookups_total",
			Help: "Search cache lookups by result",
		},
		[]string{"result"},
	)

	cacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapleads_cache_writes_total",
			Help: "Search cache writes by outcome",
		},
		[]string{"outcome"},
	)

	historyWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapleads_search_history_writes_total",
			Help: "Per-user search history writes by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveBucketFetch records one category bucket request.
func ObserveBucketFetch(bucket, status string) {
	bucketFetchTotal.WithLabelValues(bucket, status).Inc()
}

// ObserveUpstream records the latency of one provider call.
func ObserveUpstream(provider string, seconds float64) {
	upstreamDuration.WithLabelValues(provider).Observe(seconds)
}

// ObserveCacheLookup records a hit, miss or error.
func ObserveCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveCacheWrite records a written, skipped or failed write.
func ObserveCacheWrite(outcome string) {
	cacheWritesTotal.WithLabelValues(outcome).Inc()
}

// ObserveHistoryWrite records a written or failed search history entry.
func ObserveHistoryWrite(outcome string) {
	historyWritesTotal.WithLabelValues(outcome).Inc()
}
