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

var errRecipeNotFound = errs.NewNotFound("Recipe not found.")

// recipeTag is a row of the recipe/tag join table
type recipeTag struct {
	RecipeID uint
	TagID    uint
}

func (recipeTag) TableName() string {
	return "recipe_tags"
}

// RecipeService builds, updates and reads recipes together with their tag
// and ingredient associations
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	log    *logger.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, log *logger.Logger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		log:    log.With("service", "RecipeService"),
	}
}

// Create validates req and stores a new recipe owned by author
func (s *RecipeService) Create(ctx context.Context, req *types.RecipeRequest, author *models.User) (*types.RecipeResponse, error) {
	if author == nil {
		return nil, errs.ErrNotAuthenticated
	}

	plan, err := validateRecipe(ctx, s.db, req, true)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, plan.image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        plan.name,
		Image:       imageURL,
		Text:        plan.text,
		CookingTime: plan.cookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceAssociations(tx, recipe.ID, plan)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, mapWriteError(err)
	}

	s.log.Info("recipe created", "recipe_id", recipe.ID, "author_id", author.ID)
	return s.Get(ctx, recipe.ID, author)
}

// Update replaces every field and association of recipe id with req. The
// image is kept when req carries none.
func (s *RecipeService) Update(ctx context.Context, id uint, req *types.RecipeRequest, requester *models.User) (*types.RecipeResponse, error) {
	recipe, err := s.loadForWrite(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	plan, err := validateRecipe(ctx, s.db, req, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         plan.name,
		"text":         plan.text,
		"cooking_time": plan.cookingTime,
	}
	var newImage string
	if plan.image != nil {
		if newImage, err = s.images.Save(ctx, plan.image); err != nil {
			return nil, err
		}
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := clearAssociations(tx, recipe.ID); err != nil {
			return err
		}
		return replaceAssociations(tx, recipe.ID, plan)
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, mapWriteError(err)
	}
	if newImage != "" {
		s.discardImage(ctx, recipe.Image)
	}

	s.log.Info("recipe updated", "recipe_id", recipe.ID, "requester_id", requester.ID)
	return s.Get(ctx, recipe.ID, requester)
}

// Delete removes recipe id with its associations and the rows of users
// who favorited it or put it in their cart
func (s *RecipeService) Delete(ctx context.Context, id uint, requester *models.User) error {
	recipe, err := s.loadForWrite(ctx, id, requester)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearAssociations(tx, recipe.ID); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart entries: %w", err)
		}
		if err := tx.Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	s.log.Info("recipe deleted", "recipe_id", recipe.ID, "requester_id", requester.ID)
	return nil
}

// Get returns recipe id as seen by viewer, which may be nil
func (s *RecipeService) Get(ctx context.Context, id uint, viewer *models.User) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	out, err := s.project(ctx, []models.Recipe{recipe}, viewer)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns one page of recipes, newest first
func (s *RecipeService) List(ctx context.Context, filter types.RecipeFilter, page types.Pagination, viewer *models.User) ([]types.RecipeResponse, int64, error) {
	if viewer == nil && (filter.IsFavorited || filter.IsInShoppingCart) {
		return []types.RecipeResponse{}, 0, nil
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("id IN (?)", tagged)
	}
	if filter.IsFavorited {
		query = query.Where("id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
	}
	if filter.IsInShoppingCart {
		query = query.Where("id IN (?)", db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := preloadRecipe(query).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Size()).
		Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	out, err := s.project(ctx, recipes, viewer)
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (s *RecipeService) loadForWrite(ctx context.Context, id uint, requester *models.User) (*models.Recipe, error) {
	if requester == nil {
		return nil, errs.ErrNotAuthenticated
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if !requester.CanModify(recipe.AuthorID) {
		return nil, errs.ErrPermissionDenied
	}
	return &recipe, nil
}

// project renders recipes with the viewer-relative flags, using one
// existence query per flag for the whole batch
func (s *RecipeService) project(ctx context.Context, recipes []models.Recipe, viewer *models.User) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorited, err := relatedRecipes(ctx, s.db, &models.Favorite{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := relatedRecipes(ctx, s.db, &models.ShoppingCart{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = types.RecipeIngredientResponse{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		out[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           types.NewUserResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

// discardImage removes an image that no recipe references any more. The
// caller's outcome does not depend on it, so failures are only logged.
func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), url); err != nil {
		s.log.Warn("failed to delete image", "url", url, "error", err)
	}
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func clearAssociations(tx *gorm.DB, recipeID uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&recipeTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	return nil
}

func replaceAssociations(tx *gorm.DB, recipeID uint, plan *recipePlan) error {
	tags := make([]recipeTag, len(plan.tags))
	for i, tag := range plan.tags {
		tags[i] = recipeTag{RecipeID: recipeID, TagID: tag.ID}
	}
	if err := tx.Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}

	rows := make([]models.RecipeIngredient, len(plan.ingredients))
	for i, ri := range plan.ingredients {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: ri.IngredientID, Amount: ri.Amount}
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to attach ingredients: %w", err)
	}
	return nil
}

// mapWriteError turns a unique-constraint race into the validation error
// the duplicate check would have produced
func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.NewValidation("ingredients", "Ingredients must not repeat.")
	}
	return err
}
