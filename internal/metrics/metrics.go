package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilterPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorfind_filter_passes_total",
			Help: "Total number of filter passes by caller",
		},
		[]string{"caller"},
	)

	FilterMatches = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorfind_filter_matches",
			Help:    "Number of listings returned by a filter pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"caller"},
	)

	SupersededEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorfind_superseded_evaluations_total",
			Help: "Debounced filter passes replaced by newer input before running",
		},
	)

	SearchHitsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorfind_search_hits_recorded_total",
			Help: "Listings newly marked as part of a search history",
		},
	)

	SourceFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorfind_source_fetch_failures_total",
			Help: "Total number of failed listing source fetches",
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorfind_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)
)
