package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"3tcapital/phonecheck/internal/infrastructure/config"
	"3tcapital/phonecheck/internal/infrastructure/database"
	"3tcapital/phonecheck/internal/infrastructure/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := logger.NewWithWriter(os.Stderr, cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

			pool, err := openPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.RunMigrations(ctx, pool, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}
}
