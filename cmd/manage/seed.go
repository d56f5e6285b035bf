package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

var (
	tagsFile        string
	ingredientsFile string

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load tags and ingredients from JSON files",
		Example: `  manage seed --tags data/tags.json --ingredients data/ingredients.json`,
		RunE:    runSeed,
	}
)

func init() {
	seedCmd.Flags().StringVar(&tagsFile, "tags", "", "JSON list of {name, color, slug}")
	seedCmd.Flags().StringVar(&ingredientsFile, "ingredients", "", "JSON list of {name, measurement_unit}")
	seedCmd.MarkFlagsOneRequired("tags", "ingredients")
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := database.New(cfg, zlog)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(cmd.Context(), db, zlog); err != nil {
			return err
		}
	}
	catalog := service.NewCatalogService(db, zlog)

	if tagsFile != "" {
		var tags []models.Tag
		if err := readJSON(tagsFile, &tags); err != nil {
			return err
		}
		n, err := catalog.ImportTags(cmd.Context(), tags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d tags\n", n, len(tags))
	}

	if ingredientsFile != "" {
		var ingredients []models.Ingredient
		if err := readJSON(ingredientsFile, &ingredients); err != nil {
			return err
		}
		n, err := catalog.ImportIngredients(cmd.Context(), ingredients)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d ingredients\n", n, len(ingredients))
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
