package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/utils"

	log "github.com/sirupsen/logrus"
)

const maxDisplayNameLength = 64

type userService struct {
	userRepo interfaces.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo interfaces.UserRepository) interfaces.UserService {
	return &userService{userRepo: userRepo}
}

// Register stores the user's phone and display name. Registering again updates both.
func (s *userService) Register(ctx context.Context, userID int64, phone, displayName string) (*entities.User, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name is required")
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, fmt.Errorf("display name must be at most %d characters", maxDisplayNameLength)
	}

	existing, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil {
		return nil, entities.ErrUserNotFound
	}

	user, err := s.userRepo.Register(ctx, userID, normalized, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"phone":  utils.MaskPhone(normalized),
	}).Info("User registered")
	return user, nil
}
