package webapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/weval-org/dtef/internal/aggregation"
)

var (
	// aggregationDuration tracks load-plus-aggregate latency
	aggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtef_aggregation_duration_seconds",
		Help:    "Time spent loading records and building an aggregation",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	})

	// aggregationTotal counts aggregation requests by cache result
	aggregationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtef_aggregation_requests_total",
		Help: "Aggregation requests by cache result (hit, miss, error)",
	}, []string{"result"})

	// recordsLoaded is the number of records in the latest batch
	recordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtef_records_loaded",
		Help: "Records read in the most recent load",
	})

	// recordsSkipped counts records left out of aggregation, by reason
	recordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtef_records_skipped_total",
		Help: "Records skipped during aggregation by reason",
	}, []string{"reason"})

	// httpRequestDuration tracks API latency per route
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dtef_http_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code", "method"})
)

func observeSkipped(s aggregation.SkipStats) {
	recordsSkipped.WithLabelValues("no_context").Add(float64(s.NoContext))
	recordsSkipped.WithLabelValues("no_scores").Add(float64(s.NoScores))
	recordsSkipped.WithLabelValues("unresolved_context").Add(float64(s.UnresolvedContext))
}
