package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserRecipeRow is a (user, recipe) relation model such as a favorite or a
// shopping cart entry
type UserRecipeRow[T any] interface {
	*T
	Bind(userID, recipeID uint)
}

// RelationMessages are the validation messages of one relation kind
type RelationMessages struct {
	AlreadyExists string
	Missing       string
}

// RecipeRelationService keeps a (user, recipe) relation unique per pair
type RecipeRelationService[T any, PT UserRecipeRow[T]] struct {
	db       *gorm.DB
	messages RelationMessages
	log      *logger.Logger
}

// FavoriteService manages favorites
type FavoriteService = RecipeRelationService[models.Favorite, *models.Favorite]

// CartService manages shopping cart entries
type CartService = RecipeRelationService[models.ShoppingCart, *models.ShoppingCart]

// NewFavoriteService creates the favorites relation
func NewFavoriteService(db *gorm.DB, log *logger.Logger) *FavoriteService {
	return &FavoriteService{
		db: db,
		messages: RelationMessages{
			AlreadyExists: "Recipe is already in favorites.",
			Missing:       "Recipe is not in favorites.",
		},
		log: log.With("service", "FavoriteService"),
	}
}

// NewCartService creates the shopping cart relation
func NewCartService(db *gorm.DB, log *logger.Logger) *CartService {
	return &CartService{
		db: db,
		messages: RelationMessages{
			AlreadyExists: "Recipe is already in the shopping cart.",
			Missing:       "Recipe is not in the shopping cart.",
		},
		log: log.With("service", "CartService"),
	}
}

// Add relates user to recipe and returns the recipe in short form
func (s *RecipeRelationService[T, PT]) Add(ctx context.Context, user *models.User, recipeID uint) (*types.ShortRecipe, error) {
	if user == nil {
		return nil, errs.ErrNotAuthenticated
	}
	db := s.db.WithContext(ctx)

	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.exists(db, user.ID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.NewValidation("errors", s.messages.AlreadyExists)
	}

	row := PT(new(T))
	row.Bind(user.ID, recipeID)
	if err := db.Omit("User", "Recipe").Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.NewValidation("errors", s.messages.AlreadyExists)
		}
		return nil, fmt.Errorf("failed to add relation: %w", err)
	}

	s.log.Debug("relation added", "user_id", user.ID, "recipe_id", recipeID)
	short := types.NewShortRecipe(recipe)
	return &short, nil
}

// Remove deletes the relation between user and recipe
func (s *RecipeRelationService[T, PT]) Remove(ctx context.Context, user *models.User, recipeID uint) error {
	if user == nil {
		return errs.ErrNotAuthenticated
	}
	db := s.db.WithContext(ctx)

	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND recipe_id = ?", user.ID, recipeID).Delete(PT(new(T)))
	if res.Error != nil {
		return fmt.Errorf("failed to remove relation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewValidation("errors", s.messages.Missing)
	}

	s.log.Debug("relation removed", "user_id", user.ID, "recipe_id", recipeID)
	return nil
}

func (s *RecipeRelationService[T, PT]) exists(db *gorm.DB, userID, recipeID uint) (bool, error) {
	var count int64
	if err := db.Model(PT(new(T))).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check relation: %w", err)
	}
	return count > 0, nil
}

func findRecipe(ctx context.Context, db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// relatedRecipes reports which of recipeIDs the viewer has a row for in
// the table of model. Anonymous viewers have none.
func relatedRecipes(ctx context.Context, db *gorm.DB, model interface{}, viewer *models.User, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(recipeIDs))
	if viewer == nil || len(recipeIDs) == 0 {
		return out, nil
	}

	var ids []uint
	if err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewer.ID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load viewer flags: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ShoppingList sums the ingredients of every recipe in the user's cart per
// ingredient name and unit, ordered by name
func (s *RecipeService) ShoppingList(ctx context.Context, user *models.User) ([]types.ShoppingListItem, error) {
	if user == nil {
		return nil, errs.ErrNotAuthenticated
	}

	var items []types.ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", user.ID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}

// FormatShoppingList renders items as the plain text shopping list file
func FormatShoppingList(items []types.ShoppingListItem) []byte {
	var b strings.Builder
	b.WriteString("Shopping list\n\n")
	if len(items) == 0 {
		b.WriteString("Your shopping cart is empty.\n")
	}
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return []byte(b.String())
}
