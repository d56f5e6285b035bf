package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

var (
	cfg  *config.Config
	zlog *logger.Logger

	rootCmd = &cobra.Command{
		Use:   "manage",
		Short: "Administrative tasks for the foodgram backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.LoadConfig(); err != nil {
				return err
			}
			zlog, err = logger.New(cfg.LogMode)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if zlog != nil {
				zlog.Sync()
			}
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
