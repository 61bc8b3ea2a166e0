// Package metrics holds the Prometheus collectors of the notification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision outcomes recorded by the aggregator
const (
	OutcomeCreated     = "created"
	OutcomeJoined      = "joined"
	OutcomeReactivated = "reactivated"
	OutcomePruned      = "pruned"
	OutcomeDeleted     = "deleted"
	OutcomeSkipped     = "skipped"
	OutcomeFailed      = "failed"
)

var (
	// NotificationDecisions counts aggregator decisions by operation and outcome
	NotificationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_notifications_decisions_total",
			Help: "Notification aggregator decisions by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// MalformedNotifications counts stored records skipped while reading
	MalformedNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_notifications_malformed_total",
			Help: "Stored notification records skipped because they could not be decoded",
		},
		[]string{"backend"},
	)
)

// RecordDecision increments the decision counter
func RecordDecision(op, outcome string) {
	NotificationDecisions.WithLabelValues(op, outcome).Inc()
}

// RecordMalformed increments the malformed record counter for a store backend
func RecordMalformed(backend string) {
	MalformedNotifications.WithLabelValues(backend).Inc()
}
