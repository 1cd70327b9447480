package models

import "time"

// FriendRequestStatus is the lifecycle state of a FriendRequest.
// Only pending -> accepted exists; new states must be added to CanTransitionTo.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
)

// Valid reports whether s is a known status.
func (s FriendRequestStatus) Valid() bool {
	switch s {
	case FriendRequestStatusPending, FriendRequestStatusAccepted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a request in state s may move to next.
func (s FriendRequestStatus) CanTransitionTo(next FriendRequestStatus) bool {
	return s == FriendRequestStatusPending && next == FriendRequestStatusAccepted
}

// FriendRequest is a one-directional proposal from SenderID to ReceiverID.
// At most one pending row may exist per ordered pair.
type FriendRequest struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	SenderID   uint                `gorm:"not null;index:idx_friend_requests_pair;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"senderId"`
	ReceiverID uint                `gorm:"not null;index:idx_friend_requests_pair;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending';index" json:"receiverId"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// PendingRequest is a pending FriendRequest joined with its sender's profile.
type PendingRequest struct {
	RequestID   uint      `json:"requestId"`
	SenderID    uint      `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderEmail string    `json:"senderEmail"`
	CreatedAt   time.Time `json:"createdAt"`
}
