// reftool loads the static reference data (locations, items, localized
// text) into the store and exits. The ingestor runs the same load at
// startup; this tool exists for re-seeding a database out of band.
// Usage: go run ./cmd/reftool --config configs/ingestor.local.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/aodata/market-ingest/internal/bootstrap"
	"github.com/aodata/market-ingest/internal/config"
	"github.com/aodata/market-ingest/internal/database"
	"github.com/aodata/market-ingest/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Bootstrap.LocationsPath == "" && cfg.Bootstrap.LocalizationsPath == "" {
		logger.Error("no bootstrap paths configured")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	loader := bootstrap.NewLoader(bootstrap.Config{
		LocationsPath:     cfg.Bootstrap.LocationsPath,
		LocalizationsPath: cfg.Bootstrap.LocalizationsPath,
	}, store.NewReference(pool), logger)

	if err := loader.Run(ctx); err != nil {
		logger.Error("reference data load failed", "error", err)
		os.Exit(1)
	}

	logger.Info("done")
}
