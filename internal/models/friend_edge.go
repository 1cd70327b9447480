package models

import "time"

// FriendEdge records that FriendID belongs to OwnerID's friend set.
// A friendship is stored as two edges, one owned by each side. The
// (owner_id, friend_id) index is not unique: racing writers can leave
// duplicates, which the friend list read path compacts.
type FriendEdge struct {
	ID        uint      `gorm:"primarykey"`
	OwnerID   uint      `gorm:"not null;index:idx_friend_edges_owner_friend"`
	FriendID  uint      `gorm:"not null;index:idx_friend_edges_owner_friend"`
	CreatedAt time.Time
}
