// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TMDBRequests counts API requests by endpoint and outcome
	TMDBRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "tmdb",
		Name:      "requests_total",
		Help:      "TMDB API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// TMDBRequestDuration observes API request latency
	TMDBRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviebrowser",
		Subsystem: "tmdb",
		Name:      "request_duration_seconds",
		Help:      "TMDB API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// ResponseCacheLookups counts response cache hits and misses
	ResponseCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "tmdb",
		Name:      "response_cache_lookups_total",
		Help:      "Response cache lookups by result.",
	}, []string{"result"})

	// PageFetches counts collection page fetches by collection and outcome
	PageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "catalog",
		Name:      "page_fetches_total",
		Help:      "Collection page fetches by collection and outcome.",
	}, []string{"collection", "outcome"})

	// CoalescedCalls counts load calls that attached to an in-flight request
	CoalescedCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "catalog",
		Name:      "coalesced_calls_total",
		Help:      "Collection operations served by an already running request.",
	}, []string{"collection", "operation"})

	// CollectionEvents counts change notifications by collection and action
	CollectionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "catalog",
		Name:      "collection_events_total",
		Help:      "Collection change notifications by collection and action.",
	}, []string{"collection", "action"})

	// SkippedRecords counts invalid records dropped during page merges
	SkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "catalog",
		Name:      "skipped_records_total",
		Help:      "Invalid movie records dropped while merging pages.",
	})

	// LiveModels reports the number of live movie models
	LiveModels = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moviebrowser",
		Subsystem: "catalog",
		Name:      "live_models",
		Help:      "Movie models currently alive in the identity cache.",
	})

	// HTTPRequests counts API requests by route pattern and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP API requests by route and status.",
	}, []string{"method", "route", "status"})

	// ScheduledJobs counts scheduler job runs by job and outcome
	ScheduledJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviebrowser",
		Subsystem: "scheduler",
		Name:      "jobs_total",
		Help:      "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})

	// CircuitBreakerState reports the TMDB circuit state (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moviebrowser",
		Subsystem: "tmdb",
		Name:      "circuit_breaker_state",
		Help:      "TMDB circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})
)

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
