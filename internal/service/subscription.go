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

// SubscriptionService manages follower -> user edges
type SubscriptionService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSubscriptionService creates a new SubscriptionService instance
func NewSubscriptionService(db *gorm.DB, log *logger.Logger) *SubscriptionService {
	return &SubscriptionService{db: db, log: log.With("service", "SubscriptionService")}
}

// Subscribe makes follower follow user userID. recipesLimit bounds the
// recipe preview of the returned entry; values below 1 mean unlimited.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID uint, follower *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	if follower == nil {
		return nil, errs.ErrNotAuthenticated
	}
	if follower.ID == userID {
		return nil, errs.NewValidation("errors", "You cannot subscribe to yourself.")
	}

	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Subscription{}).
		Where("user_id = ? AND follower_id = ?", user.ID, follower.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if count > 0 {
		return nil, errs.NewValidation("errors", "You are already subscribed to this user.")
	}

	sub := &models.Subscription{UserID: user.ID, FollowerID: follower.ID}
	if err := db.Omit("User", "Follower").Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.NewValidation("errors", "You are already subscribed to this user.")
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	s.log.Info("subscribed", "user_id", user.ID, "follower_id", follower.ID)

	entries, err := s.entries(ctx, []models.User{*user}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// Unsubscribe removes the edge from follower to user userID
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID uint, follower *models.User) error {
	if follower == nil {
		return errs.ErrNotAuthenticated
	}
	if _, err := findUser(ctx, s.db, userID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND follower_id = ?", userID, follower.ID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewValidation("errors", "You are not subscribed to this user.")
	}

	s.log.Info("unsubscribed", "user_id", userID, "follower_id", follower.ID)
	return nil
}

// Subscriptions lists the users viewer follows, ordered by username
func (s *SubscriptionService) Subscriptions(ctx context.Context, viewer *models.User, page types.Pagination, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	if viewer == nil {
		return nil, 0, errs.ErrNotAuthenticated
	}

	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Subscription{}).Select("user_id").Where("follower_id = ?", viewer.ID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var users []models.User
	if err := db.Where("id IN (?)", followed).
		Order("username").
		Offset(page.Offset()).
		Limit(page.Size()).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entries, err := s.entries(ctx, users, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

// entries renders followed users with their newest recipes and totals
func (s *SubscriptionService) entries(ctx context.Context, users []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	db := s.db.WithContext(ctx)
	out := make([]types.SubscriptionResponse, len(users))

	for i := range users {
		u := &users[i]

		var total int64
		if err := db.Model(&models.Recipe{}).Where("author_id = ?", u.ID).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}

		query := db.Where("author_id = ?", u.ID).Order("created_at DESC").Order("id DESC")
		if recipesLimit > 0 {
			query = query.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := query.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}

		short := make([]types.ShortRecipe, len(recipes))
		for j := range recipes {
			short[j] = types.NewShortRecipe(&recipes[j])
		}
		out[i] = types.SubscriptionResponse{
			UserResponse: types.NewUserResponse(u, true),
			Recipes:      short,
			RecipesCount: total,
		}
	}
	return out, nil
}
