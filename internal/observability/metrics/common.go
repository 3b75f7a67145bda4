package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429 by limiter bucket",
		},
		[]string{"path", "limiter_type"},
	)

	// CircuitBreakerState is 0 while closed and 1 while open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: "store",
			Name:      "circuit_breaker_open",
			Help:      "Whether the store circuit breaker is open",
		},
		[]string{"name"},
	)

	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "store",
			Name:      "circuit_breaker_failures_total",
			Help:      "Store calls counted as failures by the circuit breaker",
		},
		[]string{"name"},
	)

	DomainErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_errors_total",
			Help: "Domain errors returned to clients by category and code",
		},
		[]string{"category", "code", "status"},
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "panics_recovered_total",
			Help:      "Handler panics turned into 500 responses",
		},
	)

	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by status, route and method",
		},
		[]string{"status", "path", "method"},
	)
)
