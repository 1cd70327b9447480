package apiserver

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"shelf-go/internal/services"
)

// BookHandler serves the caller's own catalog.
type BookHandler struct {
	bookService services.BookService
	logger      *zap.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(bookService services.BookService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		logger:      logger.Named("book_handler"),
	}
}

// SetFavoriteRequest is the body of PATCH /books/{bookID}/favorite.
type SetFavoriteRequest struct {
	IsFavorite *bool `json:"isFavorite"`
}

// ListBooks handles GET /books with an optional ?year= filter.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var year *int
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, h.logger, fmt.Errorf("%w: invalid year %q", services.ErrInvalidArgument, raw))
			return
		}
		year = &y
	}

	books, err := h.bookService.ListBooks(r.Context(), userID, year)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, books)
}

// ListByReadingYear handles GET /books/years.
func (h *BookHandler) ListByReadingYear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	shelves, err := h.bookService.ListByReadingYear(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shelves)
}

// ListFavorites handles GET /books/favorites.
func (h *BookHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	books, err := h.bookService.ListFavorites(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, books)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var input services.BookInput
	if err := decodeJSONBody(r, &input); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	book, err := h.bookService.CreateBook(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, book)
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "bookID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	book, err := h.bookService.GetBook(r.Context(), userID, bookID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, book)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "bookID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var input services.BookInput
	if err := decodeJSONBody(r, &input); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	book, err := h.bookService.UpdateBook(r.Context(), userID, bookID, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "bookID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.bookService.DeleteBook(r.Context(), userID, bookID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFavorite toggles the favorite flag without touching the other fields.
func (h *BookHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	bookID, err := pathID(r, "bookID")
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req SetFavoriteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if req.IsFavorite == nil {
		writeJSONError(w, "isFavorite is required", CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	book, err := h.bookService.SetFavorite(r.Context(), userID, bookID, *req.IsFavorite)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, book)
}
