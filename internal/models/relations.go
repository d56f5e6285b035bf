package models

import (
	"time"
)

// Favorite marks a recipe as liked by a user, at most once per pair
type Favorite struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorites_pair"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorites_pair;index"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}

func (f *Favorite) Bind(userID, recipeID uint) {
	f.UserID = userID
	f.RecipeID = recipeID
}

// ShoppingCart puts a recipe in a user's cart, at most once per pair
type ShoppingCart struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_shopping_carts_pair"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_shopping_carts_pair;index"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

func (s *ShoppingCart) Bind(userID, recipeID uint) {
	s.UserID = userID
	s.RecipeID = recipeID
}
