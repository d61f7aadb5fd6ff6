// Package metrics holds the prometheus collectors of the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream call results.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabhome_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabhome_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabhome_upstream_requests_total",
			Help: "Total number of third-party API calls by result",
		},
		[]string{"upstream", "result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabhome_upstream_request_duration_seconds",
			Help:    "Duration of third-party API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"upstream"},
	)

	// 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tabhome_circuit_breaker_state",
			Help: "Current circuit breaker state per upstream",
		},
		[]string{"upstream"},
	)
)

// RecordHTTPRequest records a served request. route is the gin route pattern, not the raw path.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstream records a third-party call.
func RecordUpstream(upstream, result string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(upstream, result).Inc()
	if result != ResultRejected {
		UpstreamRequestDuration.WithLabelValues(upstream).Observe(duration.Seconds())
	}
}

// SetBreakerState stores the numeric state of an upstream circuit breaker.
func SetBreakerState(upstream string, state float64) {
	CircuitBreakerState.WithLabelValues(upstream).Set(state)
}
