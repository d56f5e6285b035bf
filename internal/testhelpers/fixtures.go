package testhelpers

import (
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// DefaultPassword is the password of every user created by CreateUser
const DefaultPassword = "s3cret-pass"

// CreateUser inserts an active user named username with DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateStaff inserts an active staff user
func CreateStaff(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, username)
	if err := db.Model(user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("failed to promote %s: %v", username, err)
	}
	user.IsStaff = true
	return user
}

// CreateTag inserts a tag whose color is derived from its position
func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	var count int64
	db.Model(&models.Tag{}).Count(&count)

	tag := &models.Tag{Name: name, Slug: name, Color: fmt.Sprintf("#%06X", count+1)}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

// CreateIngredient inserts an ingredient
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// CreateRecipe inserts a recipe with the given tags and one unit of each
// ingredient, bypassing validation
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, ingredients ...*models.Ingredient) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/" + name + ".png",
		Text:        "Cook " + name,
		CookingTime: 10,
	}
	for _, tag := range tags {
		recipe.Tags = append(recipe.Tags, *tag)
	}
	for _, ing := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{IngredientID: ing.ID, Amount: 1})
	}
	if err := db.Omit("Tags.*").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}
