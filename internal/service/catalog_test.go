package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestListIngredients(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	for _, name := range []string{"Sugar", "brown sugar", "salt", "sugar_free syrup", "salted butter"} {
		testhelpers.CreateIngredient(t, db, name, "g")
	}

	names := func(list []models.Ingredient) []string {
		out := make([]string, len(list))
		for i, ing := range list {
			out[i] = ing.Name
		}
		return out
	}

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	sugar, err := svc.ListIngredients(ctx, "SUG")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sugar", "sugar_free syrup", "brown sugar"}, names(sugar))

	salt, err := svc.ListIngredients(ctx, "salt")
	require.NoError(t, err)
	assert.Equal(t, []string{"salt", "salted butter"}, names(salt))

	// Wildcards in the filter match literally
	underscore, err := svc.ListIngredients(ctx, "r_f")
	require.NoError(t, err)
	assert.Equal(t, []string{"sugar_free syrup"}, names(underscore))

	none, err := svc.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetCatalogItems(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	tag := testhelpers.CreateTag(t, db, "vegan")
	ing := testhelpers.CreateIngredient(t, db, "tofu", "g")

	gotTag, err := svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "vegan", gotTag.Slug)

	gotIng, err := svc.GetIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, "tofu", gotIng.Name)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	var nf *errs.NotFoundError
	_, err = svc.GetTag(ctx, 9999)
	assert.ErrorAs(t, err, &nf)
	_, err = svc.GetIngredient(ctx, 9999)
	assert.ErrorAs(t, err, &nf)
}

func TestImportCatalog(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewCatalogService(db, logger.Nop())
	ctx := context.Background()

	n, err := svc.ImportTags(ctx, []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#49B64E", Slug: "dinner"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = svc.ImportTags(ctx, []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Lunch", Color: "#8775D2", Slug: "lunch"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	n, err = svc.ImportIngredients(ctx, []models.Ingredient{
		{Name: "salt", MeasurementUnit: "g"},
		{Name: "salt", MeasurementUnit: "pinch"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = svc.ImportIngredients(ctx, []models.Ingredient{{Name: "salt", MeasurementUnit: "g"}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.ImportIngredients(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
