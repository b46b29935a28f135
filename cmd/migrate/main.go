package main

// Manage the Postgres schema for the visibility store and component probe:
//   go run ./cmd/migrate          # apply pending migrations
//   go run ./cmd/migrate status   # print the applied version
//   go run ./cmd/migrate down     # revert the latest migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aboutpage-backend/internal/shared/config"
	"aboutpage-backend/internal/shared/storage/db"
	"aboutpage-backend/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var databaseURL string

	withDB := func(fn func(ctx context.Context, sqlDB *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			telemetry.SetLevel(cfg.LogLevel)
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			sqlDB, err := db.Connect(cmd.Context(), databaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()
			return fn(cmd.Context(), sqlDB)
		}
	}

	up := withDB(func(ctx context.Context, sqlDB *sql.DB) error {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		names, _ := db.MigrationNames()
		telemetry.Info("migrate.up", map[string]any{"migrations": names})
		return nil
	})

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the about page schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          up,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  up,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
			if err := db.RollbackMigration(ctx, sqlDB); err != nil {
				return fmt.Errorf("roll back migration: %w", err)
			}
			telemetry.Info("migrate.down", nil)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
			version, err := db.MigrationVersion(ctx, sqlDB)
			if err != nil {
				return fmt.Errorf("read migration version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		}),
	})
	return cmd
}
