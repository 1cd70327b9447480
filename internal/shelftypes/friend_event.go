package shelftypes

import (
	"strconv"
	"time"
)

// FriendEventType names a change in the social graph that a principal is told about.
type FriendEventType string

const (
	FriendRequestCreated  FriendEventType = "friend_request.created"
	FriendRequestAccepted FriendEventType = "friend_request.accepted"
	FriendshipRemoved     FriendEventType = "friendship.removed"
)

// FriendEvent is published on the friend events topic once the change it
// describes has been committed. RecipientID is the principal to notify.
type FriendEvent struct {
	Type        FriendEventType `json:"type"`
	RecipientID uint            `json:"recipientId"`
	ActorID     uint            `json:"actorId"`
	ActorName   string          `json:"actorName,omitempty"`
	RequestID   uint            `json:"requestId,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Key partitions events by recipient so each principal sees them in order.
func (e FriendEvent) Key() string {
	return strconv.FormatUint(uint64(e.RecipientID), 10)
}

// Notification is what the notify server pushes down a WebSocket.
type Notification struct {
	Type      FriendEventType `json:"type"`
	ActorID   uint            `json:"actorId"`
	ActorName string          `json:"actorName,omitempty"`
	RequestID uint            `json:"requestId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NotificationFromEvent strips the routing fields off e.
func NotificationFromEvent(e FriendEvent) Notification {
	return Notification{
		Type:      e.Type,
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp,
	}
}
