package storage

import (
	"context"

	"gorm.io/gorm"

	"shelf-go/internal/models"
)

// BookRepository is the catalog store. Every read and write is scoped to an owner.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByIDForOwner(ctx context.Context, ownerID, bookID uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, ownerID, bookID uint) (bool, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Book, error)
	ListByOwnerAndYear(ctx context.Context, ownerID uint, year int) ([]models.Book, error)
	ListFavorites(ctx context.Context, ownerID uint) ([]models.Book, error)
	SetFavorite(ctx context.Context, ownerID, bookID uint, favorite bool) (bool, error)
}

type gormBookRepository struct {
	db *gorm.DB
}

// NewGormBookRepository creates a GORM-based BookRepository.
func NewGormBookRepository(db *gorm.DB) BookRepository {
	return &gormBookRepository{db: db}
}

func (r *gormBookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *gormBookRepository) GetByIDForOwner(ctx context.Context, ownerID, bookID uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&book, bookID).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *gormBookRepository) Update(ctx context.Context, book *models.Book) error {
	if book.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft-deletes the book and reports whether the owner had it.
func (r *gormBookRepository) Delete(ctx context.Context, ownerID, bookID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", bookID, ownerID).
		Delete(&models.Book{})
	return result.RowsAffected > 0, result.Error
}

// ListByOwner returns the owner's whole collection, newest first.
func (r *gormBookRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Book, error) {
	books := []models.Book{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&books).Error
	return books, err
}

func (r *gormBookRepository) ListByOwnerAndYear(ctx context.Context, ownerID uint, year int) ([]models.Book, error) {
	books := []models.Book{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND reading_year = ?", ownerID, year).
		Order("created_at DESC, id DESC").
		Find(&books).Error
	return books, err
}

func (r *gormBookRepository) ListFavorites(ctx context.Context, ownerID uint) ([]models.Book, error) {
	books := []models.Book{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_favorite = ?", ownerID, true).
		Order("updated_at DESC, id DESC").
		Find(&books).Error
	return books, err
}

func (r *gormBookRepository) SetFavorite(ctx context.Context, ownerID, bookID uint, favorite bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND owner_id = ?", bookID, ownerID).
		Update("is_favorite", favorite)
	return result.RowsAffected > 0, result.Error
}
