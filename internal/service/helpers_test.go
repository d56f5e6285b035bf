package service_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeFixture struct {
	db      *gorm.DB
	svc     *service.RecipeService
	images  *service.DatabaseImageStore
	author  *models.User
	other   *models.User
	staff   *models.User
	tags    []*models.Tag
	onion   *models.Ingredient
	carrot  *models.Ingredient
	potato  *models.Ingredient
	dataURI string
}

func setupRecipeFixture(t *testing.T) *recipeFixture {
	db := testhelpers.SetupSQLiteDB(t)
	images := service.NewDatabaseImageStore(db, "/media", logger.Nop())

	return &recipeFixture{
		db:     db,
		svc:    service.NewRecipeService(db, images, logger.Nop()),
		images: images,
		author: testhelpers.CreateUser(t, db, "author"),
		other:  testhelpers.CreateUser(t, db, "other"),
		staff:  testhelpers.CreateStaff(t, db, "staff"),
		tags: []*models.Tag{
			testhelpers.CreateTag(t, db, "breakfast"),
			testhelpers.CreateTag(t, db, "lunch"),
			testhelpers.CreateTag(t, db, "dinner"),
		},
		onion:   testhelpers.CreateIngredient(t, db, "onion", "g"),
		carrot:  testhelpers.CreateIngredient(t, db, "carrot", "g"),
		potato:  testhelpers.CreateIngredient(t, db, "potato", "kg"),
		dataURI: testhelpers.PNGDataURI(t),
	}
}

// request builds a valid payload for the given tags and ingredients
func (f *recipeFixture) request(tags []any, ingredients ...types.IngredientAmount) *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        "Soup",
		Text:        "Boil everything.",
		CookingTime: 30,
		Image:       f.dataURI,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func (f *recipeFixture) countRecipes(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count recipes: %v", err)
	}
	return count
}

func amount(ing *models.Ingredient, n int) types.IngredientAmount {
	return types.IngredientAmount{ID: ing.ID, Amount: n}
}

func tagIDs(tags ...*models.Tag) []any {
	out := make([]any, len(tags))
	for i, tag := range tags {
		out[i] = float64(tag.ID)
	}
	return out
}
