package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for webhook ingestion and reconciliation health.
var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries received, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	TransitionsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_transitions_applied_total",
			Help: "Order/payment state transitions applied",
		},
	)

	TransitionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_transition_conflicts_total",
			Help: "Reconciliations that exhausted their CAS retry budget",
		},
	)

	QikinkSyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qikink_sync_failures_total",
			Help: "Failed Qikink order creations queued for retry",
		},
	)

	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_sent_total",
			Help: "Notification emails sent, by kind",
		},
		[]string{"kind"},
	)

	EmailFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_email_failures_total",
			Help: "Notification emails that failed to send",
		},
	)
)

func init() {
	prometheus.MustRegister(
		WebhookEventsTotal,
		TransitionsApplied,
		TransitionConflicts,
		QikinkSyncFailures,
		EmailsSentTotal,
		EmailFailuresTotal,
	)
}
