package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracking_sessions_open",
		Help: "Tracking sessions currently held in memory.",
	})
	samplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_samples_total",
		Help: "Position samples received, by outcome.",
	}, []string{"outcome"})
)
