package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)
)

// metricsMiddleware records request counts and latency by route pattern.
func metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		endpoint := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			endpoint = r.Path
		}

		requestsTotal.WithLabelValues(c.Method(), endpoint, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(c.Method(), endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}
