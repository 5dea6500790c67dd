package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts upstream pages successfully fetched, per resource.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_pages_fetched_total",
		Help: "Upstream pages fetched successfully.",
	}, []string{"resource"})

	// RecordsUpserted counts records written to the mirror, per resource.
	RecordsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_records_upserted_total",
		Help: "Records upserted into the local mirror.",
	}, []string{"resource"})

	// RecordFailures counts per-record persistence failures that were
	// swallowed so the page could continue.
	RecordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_record_failures_total",
		Help: "Per-record upsert failures (sync continued).",
	}, []string{"resource"})

	// RateLimitHits counts upstream too-many-requests responses.
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_rate_limit_hits_total",
		Help: "Upstream rate-limit responses that triggered a backoff retry.",
	})

	// SyncDuration observes wall-clock time of one resource sync.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of a single resource sync.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"resource"})

	// SyncsInFlight gauges shops currently holding the sync guard.
	SyncsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sync_in_flight_shops",
		Help: "Shops with a full sync currently in flight.",
	})
)
