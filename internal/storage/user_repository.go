package storage

import (
	"context"

	"gorm.io/gorm"

	"shelf-go/internal/models"
)

// UserRepository defines the data operations on principals.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, id uint) (bool, error)
	SearchByName(ctx context.Context, query string, excludeUserID uint, limit int) ([]models.UserBasicInfo, error)
	GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error)
	GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]models.UserBasicInfo, error)
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID returns gorm.ErrRecordNotFound for unknown or deleted users.
func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *gormUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SearchByName matches query as a case-insensitive substring of the display
// name, excluding excludeUserID.
func (r *gormUserRepository) SearchByName(ctx context.Context, query string, excludeUserID uint, limit int) ([]models.UserBasicInfo, error) {
	results := []models.UserBasicInfo{}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "email").
		Where(`name_lower LIKE ? ESCAPE '\' AND id <> ?`, containsPattern(query), excludeUserID).
		Order("name ASC, id ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gormUserRepository) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	var info models.UserBasicInfo
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "email").
		Where("id = ?", id).
		First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetMultipleBasicInfoByIDs silently skips ids that do not resolve.
func (r *gormUserRepository) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]models.UserBasicInfo, error) {
	infos := []models.UserBasicInfo{}
	if len(userIDs) == 0 {
		return infos, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "email").
		Where("id IN ?", userIDs).
		Find(&infos).Error
	if err != nil {
		return nil, err
	}
	return infos, nil
}
