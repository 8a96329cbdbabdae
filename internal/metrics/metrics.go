package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasktracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Quota Metrics
	QuotaDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_quota_decisions_total",
			Help: "Total number of quota decisions by caller class and outcome",
		},
		[]string{"class", "outcome"},
	)

	BurstRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasktracker_burst_rejections_total",
			Help: "Total number of requests rejected by the per-second burst limiter",
		},
	)

	// Token Metrics
	TokenOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_token_operations_total",
			Help: "Total number of token operations",
		},
		[]string{"operation", "outcome"},
	)

	// Task Metrics
	TaskOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_task_operations_total",
			Help: "Total number of task operations",
		},
		[]string{"operation", "status"},
	)

	TaskEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_task_events_published_total",
			Help: "Total number of task lifecycle events handed to the broker",
		},
		[]string{"event", "status"},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_webhook_deliveries_total",
			Help: "Total number of webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasktracker_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordQuotaDecision records an admit or throttle outcome
func RecordQuotaDecision(class string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "throttled"
	}
	QuotaDecisionsTotal.WithLabelValues(class, outcome).Inc()
}

// RecordBurstRejection records a request dropped by the burst limiter
func RecordBurstRejection() {
	BurstRejectionsTotal.Inc()
}

// RecordTokenOperation records issue, verify or refresh of a token
func RecordTokenOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TokenOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordTaskOperation records a task repository call
func RecordTaskOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TaskOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordTaskEvent records a lifecycle event publish attempt
func RecordTaskEvent(event string, err error) {
	status := "published"
	if err != nil {
		status = "failed"
	}
	TaskEventsPublishedTotal.WithLabelValues(event, status).Inc()
}

// RecordWebhookDelivery records the final outcome of a webhook delivery
func RecordWebhookDelivery(outcome string) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
