// Package metrics exposes Prometheus instruments for the discovery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsScraped counts normalized posts returned per adapter.
	PostsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "posts_scraped_total",
		Help:      "Normalized posts returned by source adapters.",
	}, []string{"source"})

	// ScrapeErrors counts failed (adapter, target) fetches.
	ScrapeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "scrape_errors_total",
		Help:      "Failed adapter fetches by source.",
	}, []string{"source"})

	// LLMRequests counts completion calls by backend and outcome.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "llm_requests_total",
		Help:      "LLM completion requests by backend and status.",
	}, []string{"backend", "status"})

	// LLMRequestDuration observes completion latency including pacing wait.
	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signalhound",
		Name:      "llm_request_duration_seconds",
		Help:      "LLM completion latency including pacing delay.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"backend"})

	// AnalysisFailures counts fail-open pain analyses.
	AnalysisFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "analysis_failures_total",
		Help:      "Pain analyses that failed open with a zero score.",
	})

	// PostsScored counts opportunity scores computed.
	PostsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "posts_scored_total",
		Help:      "Opportunity scores computed by source.",
	}, []string{"source"})

	// PrefilterDropped counts posts rejected before an LLM call.
	PrefilterDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalhound",
		Name:      "prefilter_dropped_total",
		Help:      "Posts dropped by the engagement prefilter.",
	}, []string{"source"})
)
