package models

import (
	"time"
)

type Recipe struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time          `gorm:"index" json:"-"`
	UpdatedAt   time.Time          `json:"-"`
	AuthorID    uint               `gorm:"not null;index" json:"-"`
	Author      User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string             `gorm:"size:200;not null" json:"name"`
	Image       string             `gorm:"size:255;not null" json:"image"`
	Text        string             `gorm:"type:text;not null" json:"text"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time > 0" json:"cooking_time"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"-"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

// RecipeIngredient is the quantified join between a recipe and an
// ingredient. A recipe lists each ingredient at most once.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_pair"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_pair;index"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`
}

// Image is a stored recipe picture, used by the database image store
type Image struct {
	ID          string    `gorm:"primaryKey;size:64"`
	CreatedAt   time.Time
	ContentType string `gorm:"size:100;not null"`
	Data        []byte `gorm:"not null"`
}
