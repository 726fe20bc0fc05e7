package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/timetrack/timeentries/internal/config"
	"github.com/timetrack/timeentries/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the time_entries schema to PostgreSQL",
		Long: `Apply the embedded SQL migrations to the database named by DATABASE_URL.
Use --down to drop the schema again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("migrate: DATABASE_URL is required")
			}

			logger := initLogger(cfg)

			dir := repository.Up
			if down {
				dir = repository.Down
			}
			return runMigrations(cmd.Context(), cfg.DatabaseURL, dir, logger)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back instead of applying")

	return cmd
}

func runMigrations(ctx context.Context, databaseURL string, dir repository.Direction, logger *slog.Logger) error {
	applied, err := repository.Migrate(ctx, databaseURL, dir)
	if err != nil {
		return fmt.Errorf("migrate %s: %s", dir, sanitizeError(err, databaseURL))
	}

	for _, name := range applied {
		logger.Info("migration applied", slog.String("file", name), slog.String("direction", string(dir)))
	}
	logger.Info("migrations complete",
		slog.Int("count", len(applied)),
		slog.String("database_url", redactURL(databaseURL)),
	)

	return nil
}
