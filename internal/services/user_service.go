package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"shelf-go/internal/models"
	"shelf-go/internal/storage"
)

// UserService is the read side of the identity directory.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.UserBasicInfo, error)
	SearchUsers(ctx context.Context, callerID uint, query string) ([]models.UserBasicInfo, error)
}

type userService struct {
	userRepo    storage.UserRepository
	searchLimit int
}

func NewUserService(userRepo storage.UserRepository, searchLimit int) UserService {
	return &userService{userRepo: userRepo, searchLimit: searchLimit}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.UserBasicInfo, error) {
	info, err := s.userRepo.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return info, nil
}

// SearchUsers matches query as a case-insensitive substring of display names.
// The caller never appears in the results.
func (s *userService) SearchUsers(ctx context.Context, callerID uint, query string) ([]models.UserBasicInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidArgument)
	}

	users, err := s.userRepo.SearchByName(ctx, query, callerID, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
