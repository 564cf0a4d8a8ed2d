package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// CacheLookups counts catalog cache lookups by kind (search, game) and result (hit, miss)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	// UpstreamRequests counts third-party calls by provider and outcome
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameshelf_upstream_requests_total",
			Help: "Requests to third-party providers by outcome",
		},
		[]string{"provider", "outcome"},
	)

	MatcherBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gameshelf_matcher_batches_total",
			Help: "Shelf matcher batches processed",
		},
	)

	MatcherLabelFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gameshelf_matcher_label_failures_total",
			Help: "Detected labels whose catalog search failed",
		},
	)
)
