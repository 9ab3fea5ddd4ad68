package routes

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directions_upstream_requests_total",
		Help: "Total number of route computations sent to the routing service",
	}, []string{"outcome"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directions_upstream_request_duration_seconds",
		Help:    "Latency of route computations against the routing service",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	routeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directions_route_cache_total",
		Help: "Route cache lookups by result",
	}, []string{"result"})
)

func observeUpstream(err error, started time.Time) {
	outcome := "success"
	if err != nil {
		outcome = Kind(err)
	}
	upstreamRequestsTotal.WithLabelValues(outcome).Inc()
	upstreamRequestDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}
