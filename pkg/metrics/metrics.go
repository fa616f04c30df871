package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DBQueryDuration database query latency in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table", "result"},
	)

	// SlowQueryCount queries above the slow threshold
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_db_slow_queries_total",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// HTTPRequestDuration HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// LifecycleTransitionCount project status transitions
	LifecycleTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_lifecycle_transitions_total",
			Help: "Total number of project status transitions",
		},
		[]string{"from", "to"},
	)

	// OnboardingOutcomeCount landing decisions by outcome
	OnboardingOutcomeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_onboarding_outcomes_total",
			Help: "Total number of onboarding landing decisions",
		},
		[]string{"outcome"}, // outcome: onboarded, resume, fresh, bypass
	)

	// EventPublishCount lifecycle events published
	EventPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_events_published_total",
			Help: "Total number of lifecycle events published",
		},
		[]string{"routing_key", "status"}, // status: success, failed
	)
)

// RecordDBQueryDuration records a database query latency
func RecordDBQueryDuration(operation, table, result string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table, result).Observe(duration.Seconds())
}

// IncrementSlowQuery counts a slow query
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.Inc()
}

// RecordHTTPRequestDuration records an HTTP request latency
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementLifecycleTransition counts a status transition
func IncrementLifecycleTransition(from, to string) {
	LifecycleTransitionCount.WithLabelValues(from, to).Inc()
}

// IncrementOnboardingOutcome counts a landing decision
func IncrementOnboardingOutcome(outcome string) {
	OnboardingOutcomeCount.WithLabelValues(outcome).Inc()
}

// IncrementEventPublish counts a publish attempt
func IncrementEventPublish(routingKey, status string) {
	EventPublishCount.WithLabelValues(routingKey, status).Inc()
}
