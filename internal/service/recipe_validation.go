package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxRecipeNameLength = 200
	msgRequired         = "This field is required."
)

// recipePlan is a validated payload with every reference resolved
type recipePlan struct {
	name        string
	text        string
	cookingTime int
	image       *ImageFile
	tags        []models.Tag
	ingredients []models.RecipeIngredient
}

// validateRecipe runs the payload checks in order and stops at the first
// failing stage
func validateRecipe(ctx context.Context, db *gorm.DB, req *types.RecipeRequest, creating bool) (*recipePlan, error) {
	img, err := validateRecipeFields(req, creating)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveIngredients(ctx, db, req.Ingredients)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateIngredients(req.Ingredients, resolved); err != nil {
		return nil, err
	}

	tagIDs, err := parseTagIDs(req.Tags)
	if err != nil {
		return nil, err
	}
	tags, err := resolveTags(ctx, db, tagIDs)
	if err != nil {
		return nil, err
	}

	plan := &recipePlan{
		name:        strings.TrimSpace(req.Name),
		text:        req.Text,
		cookingTime: req.CookingTime,
		image:       img,
		tags:        tags,
	}
	for _, item := range req.Ingredients {
		plan.ingredients = append(plan.ingredients, models.RecipeIngredient{
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return plan, nil
}

// validateRecipeFields checks scalar bounds, list presence and decodes the
// image. The image is required on create and optional on update.
func validateRecipeFields(req *types.RecipeRequest, creating bool) (*ImageFile, error) {
	verr := &errs.ValidationError{}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", msgRequired)
	case len([]rune(name)) > maxRecipeNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxRecipeNameLength))
	}
	if strings.TrimSpace(req.Text) == "" {
		verr.Add("text", msgRequired)
	}
	if req.CookingTime < 1 {
		verr.Add("cooking_time", "Ensure this value is greater than or equal to 1.")
	}

	if len(req.Tags) == 0 {
		verr.Add("tags", msgRequired)
	}
	if len(req.Ingredients) == 0 {
		verr.Add("ingredients", msgRequired)
	}
	for _, item := range req.Ingredients {
		if item.Amount < 1 {
			verr.Add("ingredients", "Ensure amount is greater than or equal to 1.")
			break
		}
	}

	var (
		img    *ImageFile
		imgErr error
	)
	switch {
	case len(req.ImageData) > 0:
		img, imgErr = SniffImage(req.ImageData)
	case req.Image != "":
		img, imgErr = DecodeDataURI(req.Image)
	case creating:
		verr.Add("image", msgRequired)
	}
	mergeValidation(verr, "image", imgErr)

	if !verr.Empty() {
		return nil, verr
	}
	return img, nil
}

// mergeValidation folds err into verr, under field when err carries no
// field messages of its own
func mergeValidation(verr *errs.ValidationError, field string, err error) {
	if err == nil {
		return
	}
	var other *errs.ValidationError
	if errors.As(err, &other) {
		for f, msgs := range other.Fields {
			for _, msg := range msgs {
				verr.Add(f, msg)
			}
		}
		return
	}
	verr.Add(field, err.Error())
}

// resolveIngredients loads every referenced ingredient
func resolveIngredients(ctx context.Context, db *gorm.DB, items []types.IngredientAmount) (map[uint]models.Ingredient, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	var found []models.Ingredient
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve ingredients: %w", err)
	}

	byID := make(map[uint]models.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &errs.NotFoundError{Field: "ingredients", Message: fmt.Sprintf("Ingredient %d not found.", id)}
		}
	}
	return byID, nil
}

// checkDuplicateIngredients keeps the first occurrence of each ingredient
// and reports every later repeat by name
func checkDuplicateIngredients(items []types.IngredientAmount, resolved map[uint]models.Ingredient) error {
	seen := make(map[uint]bool, len(items))
	var repeats []string
	for _, item := range items {
		if seen[item.ID] {
			repeats = append(repeats, resolved[item.ID].Name)
			continue
		}
		seen[item.ID] = true
	}
	if len(repeats) == 0 {
		return nil
	}
	return errs.NewValidation("ingredients", "Ingredients must not repeat: "+strings.Join(repeats, ", ")+".")
}

// parseTagIDs accepts integer tag ids only and drops duplicates, keeping
// the first-seen order
func parseTagIDs(values []any) ([]uint, error) {
	var (
		ids     []uint
		invalid []string
		seen    = make(map[uint]bool, len(values))
	)
	for _, v := range values {
		id, ok := integerID(v)
		if !ok {
			invalid = append(invalid, valueType(v))
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(invalid) > 0 {
		return nil, errs.NewValidation("tags", fmt.Sprintf("Expected integer ids, got [%s].", strings.Join(invalid, ", ")))
	}
	return ids, nil
}

// integerID converts v to an id. Negative integers are valid ids that will
// simply not resolve.
func integerID(v any) (uint, bool) {
	switch n := v.(type) {
	case int:
		return clampID(int64(n)), true
	case int64:
		return clampID(n), true
	case uint:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return clampID(int64(n)), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return clampID(i), true
	default:
		return 0, false
	}
}

func clampID(n int64) uint {
	if n < 0 {
		return 0
	}
	return uint(n)
}

func valueType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, json.Number:
		return "float"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// resolveTags loads every tag in ids
func resolveTags(ctx context.Context, db *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if len(tags) != len(ids) {
		return nil, &errs.NotFoundError{Field: "tags", Message: "One of the tags was not found."}
	}
	return tags, nil
}
