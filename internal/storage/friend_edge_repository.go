package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shelf-go/internal/models"
)

// FriendEdgeRepository defines the data operations on the directed friend edges
// that make up each principal's friend set.
type FriendEdgeRepository interface {
	Exists(ctx context.Context, ownerID, friendID uint) (bool, error)
	AddIfMissing(ctx context.Context, ownerID, friendID uint) (bool, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.FriendEdge, error)
	ListByOwnerForUpdate(ctx context.Context, ownerID uint) ([]models.FriendEdge, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	DeletePair(ctx context.Context, userA, userB uint) (int64, error)
}

type gormFriendEdgeRepository struct {
	db *gorm.DB
}

// NewGormFriendEdgeRepository creates a FriendEdgeRepository bound to db,
// which may be a transaction handle.
func NewGormFriendEdgeRepository(db *gorm.DB) FriendEdgeRepository {
	return &gormFriendEdgeRepository{db: db}
}

// Exists reports whether friendID is in ownerID's friend set.
func (r *gormFriendEdgeRepository) Exists(ctx context.Context, ownerID, friendID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FriendEdge{}).
		Where("owner_id = ? AND friend_id = ?", ownerID, friendID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddIfMissing appends friendID to ownerID's set unless it is already there.
// It reports whether a row was written.
func (r *gormFriendEdgeRepository) AddIfMissing(ctx context.Context, ownerID, friendID uint) (bool, error) {
	exists, err := r.Exists(ctx, ownerID, friendID)
	if err != nil || exists {
		return false, err
	}
	edge := models.FriendEdge{OwnerID: ownerID, FriendID: friendID}
	if err := r.db.WithContext(ctx).Create(&edge).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ListByOwner returns ownerID's stored edges in insertion order, duplicates included.
func (r *gormFriendEdgeRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.FriendEdge, error) {
	edges := []models.FriendEdge{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// ListByOwnerForUpdate is ListByOwner with the rows locked for the rest of
// the surrounding transaction, so a concurrent DeletePair waits for it.
func (r *gormFriendEdgeRepository) ListByOwnerForUpdate(ctx context.Context, ownerID uint) ([]models.FriendEdge, error) {
	edges := []models.FriendEdge{}
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *gormFriendEdgeRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.FriendEdge{})
	return result.RowsAffected, result.Error
}

// DeletePair removes both directions of the edge between userA and userB.
func (r *gormFriendEdgeRepository) DeletePair(ctx context.Context, userA, userB uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(owner_id = ? AND friend_id = ?) OR (owner_id = ? AND friend_id = ?)", userA, userB, userB, userA).
		Delete(&models.FriendEdge{})
	return result.RowsAffected, result.Error
}
