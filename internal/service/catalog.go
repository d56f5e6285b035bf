package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

// CatalogService serves the read-only tag and ingredient reference data
type CatalogService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, log: log.With("service", "CatalogService")}
}

// ListTags returns every tag ordered by name
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one tag
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("Tag not found.")
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// ListIngredients returns ingredients whose name contains name, ignoring
// case. Names starting with name come first, each group ordered by name.
func (s *CatalogService) ListIngredients(ctx context.Context, name string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Model(&models.Ingredient{})

	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" {
		escaped := escapeLike(name)
		query = query.
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escaped+"%").
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:  `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, name`,
				Vars: []interface{}{escaped + "%"},
			}})
	} else {
		query = query.Order("name")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns one ingredient
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("Ingredient not found.")
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	return &ing, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ImportTags inserts tags, skipping any that clash with an existing name,
// color or slug. It returns the number of rows inserted.
func (s *CatalogService) ImportTags(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(tags, 100)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import tags: %w", res.Error)
	}
	s.log.Info("tags imported", "inserted", res.RowsAffected, "total", len(tags))
	return res.RowsAffected, nil
}

// ImportIngredients inserts ingredients, skipping known (name, unit) pairs
func (s *CatalogService) ImportIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(ingredients, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", res.Error)
	}
	s.log.Info("ingredients imported", "inserted", res.RowsAffected, "total", len(ingredients))
	return res.RowsAffected, nil
}
