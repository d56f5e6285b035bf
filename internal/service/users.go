package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

var errUserNotFound = errs.NewNotFound("User not found.")

// UserService serves public user profiles
type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	return &UserService{db: db, log: log.With("service", "UserService")}
}

// Get returns the profile of user id as seen by viewer
func (s *UserService) Get(ctx context.Context, id uint, viewer *models.User) (*types.UserResponse, error) {
	user, err := findUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	resp := types.NewUserResponse(user, subscribed[user.ID])
	return &resp, nil
}

// Me returns the profile of the viewer itself
func (s *UserService) Me(viewer *models.User) types.UserResponse {
	return types.NewUserResponse(viewer, false)
}

// List returns one page of users ordered by username
func (s *UserService) List(ctx context.Context, page types.Pagination, viewer *models.User) ([]types.UserResponse, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("username").
		Offset(page.Offset()).
		Limit(page.Size()).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, ids)
	if err != nil {
		return nil, 0, err
	}

	results := make([]types.UserResponse, len(users))
	for i := range users {
		results[i] = types.NewUserResponse(&users[i], subscribed[users[i].ID])
	}
	return results, count, nil
}

func findUser(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// subscribedTo reports which of userIDs the viewer follows. Anonymous
// viewers follow nobody.
func subscribedTo(ctx context.Context, db *gorm.DB, viewer *models.User, userIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(userIDs))
	if viewer == nil || len(userIDs) == 0 {
		return out, nil
	}

	var followed []uint
	if err := db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ? AND user_id IN ?", viewer.ID, userIDs).
		Pluck("user_id", &followed).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}
