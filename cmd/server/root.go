package main

import (
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/gusto-eats/internal/config"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gusto-eats",
		Short:         "Food ordering API and Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSuperuserCommand())
	return rootCmd
}

// newLogger returns a leveled logger: DEBUG in dev, INFO elsewhere.
func newLogger(prefix string, cfg config.Config) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(logLevel(cfg.Env))
	return l
}

func logLevel(env string) log.Lvl {
	if env == "dev" {
		return log.DEBUG
	}
	return log.INFO
}
