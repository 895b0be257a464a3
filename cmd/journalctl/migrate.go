package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gwi.com/journal-companion/internal/config"
	"gwi.com/journal-companion/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	Long: `Bring the PostgreSQL schema up to date. The SQLite backend creates its
schema on open and needs no migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StoreBackend != config.BackendPostgres {
			return fmt.Errorf("migrations apply to the postgres backend only (STORE_BACKEND=%s)", cfg.StoreBackend)
		}
		if err := store.RunMigrations(cfg.DatabaseURL, store.MigrationsFS()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}
