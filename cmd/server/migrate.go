package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhadat/listing-auth/internal/logger"
	"github.com/nhadat/listing-auth/internal/storage/postgres"
)

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply the embedded SQL migrations to the Postgres database.

The connection string is read from --database-url or DATABASE_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runMigrate(ctx, databaseURL)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default: $DATABASE_URL)")

	return cmd
}

func runMigrate(ctx context.Context, databaseURL string) error {
	log := logger.SetupDefault(os.Stdout, false)

	if databaseURL == "" {
		databaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	store, err := postgres.NewUserStore(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("migrations applied", slog.String("component", "migrate"))
	return nil
}
