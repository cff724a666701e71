package directions

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directions_requests_total",
			Help: "Route calculations by transport mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	providerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directions_provider_duration_seconds",
			Help:    "Routing provider latency, split by cache hits.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cached"},
	)
)

func observeProvider(cached bool, d time.Duration) {
	providerDuration.WithLabelValues(strconv.FormatBool(cached)).Observe(d.Seconds())
}
