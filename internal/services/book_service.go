package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"shelf-go/internal/models"
	"shelf-go/internal/storage"
)

// BookInput is the writable part of a book, used for create and full update.
type BookInput struct {
	Title         string               `json:"title" validate:"required,max=255"`
	Authors       []string             `json:"authors" validate:"required,min=1,dive,required,max=255"`
	ISBN          *string              `json:"isbn" validate:"omitempty,max=32"`
	Publisher     string               `json:"publisher" validate:"max=255"`
	PublishedYear *int                 `json:"publishedYear" validate:"omitempty,min=1000"`
	Genres        []string             `json:"genres" validate:"dive,required,max=64"`
	Pages         *int                 `json:"pages" validate:"omitempty,min=1"`
	Synopsis      string               `json:"synopsis" validate:"max=2000"`
	CoverURL      string               `json:"coverUrl" validate:"max=512"`
	ReadingYear   int                  `json:"readingYear" validate:"required,min=1000,max=9999"`
	ReadingStatus models.ReadingStatus `json:"readingStatus" validate:"omitempty,oneof=want_to_read reading read abandoned"`
	IsFavorite    bool                 `json:"isFavorite"`
	Rating        *float64             `json:"rating" validate:"omitempty,min=0,max=10"`
}

// BookService is the owner-scoped catalog store.
type BookService interface {
	CreateBook(ctx context.Context, ownerID uint, input BookInput) (*models.Book, error)
	GetBook(ctx context.Context, ownerID, bookID uint) (*models.Book, error)
	UpdateBook(ctx context.Context, ownerID, bookID uint, input BookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, ownerID, bookID uint) error
	ListBooks(ctx context.Context, ownerID uint, year *int) ([]models.Book, error)
	ListByReadingYear(ctx context.Context, ownerID uint) ([]models.YearShelf, error)
	ListFavorites(ctx context.Context, ownerID uint) ([]models.Book, error)
	SetFavorite(ctx context.Context, ownerID, bookID uint, favorite bool) (*models.Book, error)
}

type bookService struct {
	bookRepo storage.BookRepository
	now      func() time.Time
}

func NewBookService(bookRepo storage.BookRepository) BookService {
	return &bookService{bookRepo: bookRepo, now: time.Now}
}

func (s *bookService) validate(input *BookInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Publisher = strings.TrimSpace(input.Publisher)
	if input.ISBN != nil {
		isbn := strings.TrimSpace(*input.ISBN)
		if isbn == "" {
			input.ISBN = nil
		} else {
			input.ISBN = &isbn
		}
	}
	if err := validateStruct(input); err != nil {
		return err
	}
	if input.PublishedYear != nil && *input.PublishedYear > s.now().Year()+1 {
		return fmt.Errorf("%w: publishedYear is too far in the future", ErrInvalidArgument)
	}
	return nil
}

func applyBookInput(book *models.Book, input BookInput) {
	book.Title = input.Title
	book.Authors = models.StringList(input.Authors)
	book.ISBN = input.ISBN
	book.Publisher = input.Publisher
	book.PublishedYear = input.PublishedYear
	book.Genres = models.StringList(input.Genres)
	if book.Genres == nil {
		book.Genres = models.StringList{}
	}
	book.Pages = input.Pages
	book.Synopsis = input.Synopsis
	book.CoverURL = input.CoverURL
	book.ReadingYear = input.ReadingYear
	book.ReadingStatus = input.ReadingStatus
	if book.ReadingStatus == "" {
		book.ReadingStatus = models.ReadingStatusWantToRead
	}
	book.IsFavorite = input.IsFavorite
	book.Rating = input.Rating
}

func (s *bookService) CreateBook(ctx context.Context, ownerID uint, input BookInput) (*models.Book, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	book := &models.Book{OwnerID: ownerID}
	applyBookInput(book, input)
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

func (s *bookService) GetBook(ctx context.Context, ownerID, bookID uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByIDForOwner(ctx, ownerID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return book, nil
}

func (s *bookService) UpdateBook(ctx context.Context, ownerID, bookID uint, input BookInput) (*models.Book, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	book, err := s.GetBook(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	applyBookInput(book, input)
	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, ownerID, bookID uint) error {
	deleted, err := s.bookRepo.Delete(ctx, ownerID, bookID)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: book %d", ErrNotFound, bookID)
	}
	return nil
}

// ListBooks returns the owner's books, newest first, optionally limited to one reading year.
func (s *bookService) ListBooks(ctx context.Context, ownerID uint, year *int) ([]models.Book, error) {
	var (
		books []models.Book
		err   error
	)
	if year != nil {
		books, err = s.bookRepo.ListByOwnerAndYear(ctx, ownerID, *year)
	} else {
		books, err = s.bookRepo.ListByOwner(ctx, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// ListByReadingYear groups the owner's books by reading year, most recent year first.
func (s *bookService) ListByReadingYear(ctx context.Context, ownerID uint) ([]models.YearShelf, error) {
	books, err := s.ListBooks(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}

	index := make(map[int]int)
	shelves := []models.YearShelf{}
	for _, book := range books {
		i, ok := index[book.ReadingYear]
		if !ok {
			i = len(shelves)
			index[book.ReadingYear] = i
			shelves = append(shelves, models.YearShelf{Year: book.ReadingYear})
		}
		shelves[i].Books = append(shelves[i].Books, book)
	}
	sort.SliceStable(shelves, func(a, b int) bool { return shelves[a].Year > shelves[b].Year })
	return shelves, nil
}

func (s *bookService) ListFavorites(ctx context.Context, ownerID uint) ([]models.Book, error) {
	books, err := s.bookRepo.ListFavorites(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return books, nil
}

func (s *bookService) SetFavorite(ctx context.Context, ownerID, bookID uint, favorite bool) (*models.Book, error) {
	updated, err := s.bookRepo.SetFavorite(ctx, ownerID, bookID, favorite)
	if err != nil {
		return nil, fmt.Errorf("failed to update favorite: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
	}
	return s.GetBook(ctx, ownerID, bookID)
}
