package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// AllModels lists every table the service owns, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscription{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Image{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCart{},
	}
}

// Migrate brings the schema up to date. SQLite uses GORM auto-migration;
// postgres applies the embedded SQL migrations.
func Migrate(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using GORM auto-migration for SQLite")
		return db.WithContext(ctx).AutoMigrate(AllModels()...)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	_, err = RunMigrations(ctx, sqlDB, log)
	return err
}

// Migration is one embedded SQL file
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations sorted by file name
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		out = append(out, Migration{Name: strings.TrimPrefix(name, "migrations/"), SQL: string(content)})
	}
	return out, nil
}

// RunMigrations applies every embedded migration not yet recorded in the
// schema_migrations table. Each file runs in its own transaction. It is
// written against database/sql with postgres placeholders so the migrate
// command can drive it through lib/pq.
func RunMigrations(ctx context.Context, db *sql.DB, log *logger.Logger) ([]string, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range migrations {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE name = $1", m.Name).Scan(&count); err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug("skipping migration", "name", m.Name)
			continue
		}

		if err := applyMigration(ctx, db, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.Name)
		log.Info("applied migration", "name", m.Name)
	}

	return applied, nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", m.Name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
	}
	return tx.Commit()
}
