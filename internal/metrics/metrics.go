// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts committed status transitions.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "intervention",
			Name:      "transitions_total",
			Help:      "Total number of committed intervention status transitions",
		},
		[]string{"from", "to"},
	)

	// OperationsTotal counts lifecycle operations by outcome kind.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "intervention",
			Name:      "operations_total",
			Help:      "Total number of lifecycle operations by result",
		},
		[]string{"operation", "result"},
	)

	RecurringSpawnedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "intervention",
			Name:      "recurring_spawned_total",
			Help:      "Total number of interventions regenerated from a recurring resolution",
		},
	)

	// NotificationsTotal counts notification records by email delivery state.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "notification",
			Name:      "records_total",
			Help:      "Total number of notifications by kind and email status",
		},
		[]string{"kind", "email_status"},
	)

	MailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "notification",
			Name:      "mail_deliveries_total",
			Help:      "Total number of email delivery attempts",
		},
		[]string{"status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esilogis",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esilogis",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

func RecordTransition(from, to string) {
	TransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordOperation(operation, result string) {
	OperationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordNotification(kind, emailStatus string) {
	NotificationsTotal.WithLabelValues(kind, emailStatus).Inc()
}

func RecordMailDelivery(status string) {
	MailDeliveriesTotal.WithLabelValues(status).Inc()
}

func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
