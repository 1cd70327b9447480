// Package metrics provides Prometheus metrics for the social graph.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FriendRequestsTotal tracks friend request proposals by outcome
	FriendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "friend_requests",
			Name:      "proposed_total",
			Help:      "Total number of friend request proposals by outcome",
		},
		[]string{"outcome"},
	)

	// FriendRequestsAccepted tracks accept attempts by outcome
	FriendRequestsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "friend_requests",
			Name:      "accepted_total",
			Help:      "Total number of friend request accept attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FriendGraphRepairs tracks duplicate edges removed on read
	FriendGraphRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "friend_graph",
			Name:      "repairs_total",
			Help:      "Total number of duplicate friend edges removed by read-time repair",
		},
	)

	// FriendshipsRemoved tracks friend removals
	FriendshipsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "friend_graph",
			Name:      "removals_total",
			Help:      "Total number of friend removals",
		},
	)

	// AccessGateDecisions tracks shared collection reads by decision
	AccessGateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "access_gate",
			Name:      "decisions_total",
			Help:      "Total number of shared collection reads by decision",
		},
		[]string{"decision"},
	)

	// FriendEventsPublished tracks friend events handed to the event bus
	FriendEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "kafka",
			Name:      "friend_events_published_total",
			Help:      "Total number of friend events published",
		},
		[]string{"type", "status"},
	)

	// NotificationsDelivered tracks WebSocket notifications by result
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of friend notifications pushed to WebSocket clients",
		},
		[]string{"result"},
	)
)

// RecordFriendRequest records a proposal outcome
func RecordFriendRequest(outcome string) {
	FriendRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordAccept records an accept outcome
func RecordAccept(outcome string) {
	FriendRequestsAccepted.WithLabelValues(outcome).Inc()
}

// RecordGraphRepair records how many duplicate edges a read removed
func RecordGraphRepair(removed int64) {
	if removed > 0 {
		FriendGraphRepairs.Add(float64(removed))
	}
}

// RecordAccessDecision records an access gate decision
func RecordAccessDecision(allowed bool) {
	decision := "forbidden"
	if allowed {
		decision = "allowed"
	}
	AccessGateDecisions.WithLabelValues(decision).Inc()
}

// RecordFriendEvent records a publish attempt
func RecordFriendEvent(eventType, status string) {
	FriendEventsPublished.WithLabelValues(eventType, status).Inc()
}

// RecordNotification records a delivery attempt
func RecordNotification(result string) {
	NotificationsDelivered.WithLabelValues(result).Inc()
}
