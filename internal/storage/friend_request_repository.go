package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shelf-go/internal/models"
)

// FriendRequestRepository defines the data operations on the friend request ledger.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	FindPending(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	GetByIDForUpdate(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	MarkAccepted(ctx context.Context, requestID uint) (bool, error)
	ListPendingForReceiver(ctx context.Context, receiverID uint) ([]models.PendingRequest, error)
	DeleteBetween(ctx context.Context, userA, userB uint) (int64, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a FriendRequestRepository bound to db,
// which may be a transaction handle.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// FindPending looks for a pending request from senderID to receiverID only;
// the opposite direction is not considered. Returns nil, nil when none exists.
func (r *gormFriendRequestRepository) FindPending(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByIDForUpdate locks the row for the rest of the surrounding transaction
// where the dialect supports row locks.
func (r *gormFriendRequestRepository) GetByIDForUpdate(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkAccepted moves a pending request to accepted. It reports false when
// the request was not pending anymore.
func (r *gormFriendRequestRepository) MarkAccepted(ctx context.Context, requestID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Update("status", models.FriendRequestStatusAccepted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListPendingForReceiver returns pending requests addressed to receiverID with
// the sender's name and email, oldest first. Requests whose sender no longer
// exists are left out.
func (r *gormFriendRequestRepository) ListPendingForReceiver(ctx context.Context, receiverID uint) ([]models.PendingRequest, error) {
	pending := []models.PendingRequest{}
	err := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Select("friend_requests.id AS request_id, friend_requests.sender_id, users.name AS sender_name, users.email AS sender_email, friend_requests.created_at").
		Joins("JOIN users ON users.id = friend_requests.sender_id AND users.deleted_at IS NULL").
		Where("friend_requests.receiver_id = ? AND friend_requests.status = ?", receiverID, models.FriendRequestStatusPending).
		Order("friend_requests.created_at ASC, friend_requests.id ASC").
		Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// DeleteBetween removes every request between the two users in either
// direction, whatever its status.
func (r *gormFriendRequestRepository) DeleteBetween(ctx context.Context, userA, userB uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Delete(&models.FriendRequest{})
	return result.RowsAffected, result.Error
}
