package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Player data metrics
	FetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_playerdata_fetches_total",
		Help: "The total number of player attribute fetch operations",
	})
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_playerdata_fetch_errors_total",
		Help: "The total number of failed player attribute fetches",
	})
	UpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_playerdata_updates_total",
		Help: "The total number of player attribute update operations",
	})
	UpdateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_playerdata_update_errors_total",
		Help: "The total number of failed player attribute updates",
	})
	UpsertLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "middleware_playerdata_upsert_latency_seconds",
		Help:    "Latency of player data UPSERT transactions",
		Buckets: prometheus.DefBuckets,
	})

	// Cache metrics
	CacheWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_cache_writes_total",
		Help: "The total number of write-through cache mirror updates",
	})
	CacheErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_cache_errors_total",
		Help: "The total number of cache mirror failures",
	})

	// Broker metrics. Publish failures are fire-and-forget on the call
	// path, so this counter is the only place they surface.
	PublishesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_rabbit_publishes_total",
		Help: "The total number of messages published to the broker",
	})
	PublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_rabbit_publish_errors_total",
		Help: "The total number of swallowed broker publish failures",
	})
	ConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_rabbit_consumed_total",
		Help: "The total number of messages delivered to consumers",
	})
	ReadyTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "middleware_rabbit_ready_timeouts_total",
		Help: "The total number of channel readiness waits that hit the timeout",
	})
)
