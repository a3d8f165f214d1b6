// Package metrics exposes Prometheus collectors for fetch and cache
// behavior, served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wxbrief",
		Name:      "fetch_total",
		Help:      "Weather source fetches by product kind and outcome.",
	}, []string{"kind", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wxbrief",
		Name:      "fetch_duration_seconds",
		Help:      "Weather source fetch latency by product kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wxbrief",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by product kind and result (hit, miss, coalesced, snapshot).",
	}, []string{"kind", "result"})
)

// RecordFetch counts one source fetch outcome ("ok", "error", "no_data")
func RecordFetch(kind, outcome string) {
	fetchTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveFetchDuration records one source fetch latency in seconds
func ObserveFetchDuration(kind string, seconds float64) {
	fetchDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordCacheLookup counts one cache lookup result
func RecordCacheLookup(kind, result string) {
	cacheLookups.WithLabelValues(kind, result).Inc()
}
