package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	Long: `Applies the embedded SQL migrations that are not yet recorded in
schema_migrations, each in its own transaction. Postgres only: the sqlite
driver migrates on server start.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.DBDriver != config.DriverPostgres {
		return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.DBDriver)
	}

	db, err := sql.Open("postgres", cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	applied, err := database.RunMigrations(cmd.Context(), db, zlog)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to apply.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
	}
	return nil
}
