package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/gusto-eats/internal/config"
	"github.com/iliyamo/gusto-eats/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger("migrate", cfg)
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Infof("schema applied to %s", cfg.DBName)
			return nil
		},
	}
}
