package main

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/auth_service/internal/config"
	"github.com/Skotchmaster/auth_service/pkg/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect postgres schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
			return db.MigratePostgres(cmd.Context(), cfg.DatabaseURL)
		},
	}, &cobra.Command{
		Use:   "status",
		Short: "Print migration status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
			return db.MigrationStatus(cmd.Context(), cfg.DatabaseURL)
		},
	})
	return cmd
}
