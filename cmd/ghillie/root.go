package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ghillie/internal/app"
	"ghillie/internal/config"
)

func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:           "ghillie",
		Short:         "Software delivery activity ingestion and reporting",
		Long:          "Ghillie imports estate catalogues, synchronises the repository registry, and generates repository and project status reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dbPath, "db-path", "", "path to the SQLite metastore (overrides GHILLIE_DB_PATH)")

	root.AddCommand(
		newMigrateCmd(&dbPath),
		newImportCmd(&dbPath),
		newSyncCmd(&dbPath),
		newReportCmd(&dbPath),
		newServeCmd(&dbPath),
	)
	return root
}

// bootstrap loads configuration from the environment (and .env, if
// present), applies a --db-path override, builds a structured logger,
// and returns a ready-to-use App: load dotenv, load env config, build
// the slog logger, then replay any config warnings.
func bootstrap(dbPathOverride string) (*app.App, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warn: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.DBPath = dbPathOverride
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn("config warning", "detail", w)
	}

	return app.New(cfg, logger), nil
}
