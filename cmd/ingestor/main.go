package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aodata/market-ingest/internal/bootstrap"
	"github.com/aodata/market-ingest/internal/buffer"
	"github.com/aodata/market-ingest/internal/bus"
	"github.com/aodata/market-ingest/internal/config"
	"github.com/aodata/market-ingest/internal/database"
	"github.com/aodata/market-ingest/internal/ingest"
	"github.com/aodata/market-ingest/internal/maintenance"
	"github.com/aodata/market-ingest/internal/metrics"
	"github.com/aodata/market-ingest/internal/store"
	"github.com/aodata/market-ingest/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Load reference data before ingestion starts: a failure here is fatal,
	// correct ingestion depends on the reference tables existing.
	loader := bootstrap.NewLoader(bootstrap.Config{
		LocationsPath:     cfg.Bootstrap.LocationsPath,
		LocalizationsPath: cfg.Bootstrap.LocalizationsPath,
	}, store.NewReference(pool), logger)
	if err := loader.Run(ctx); err != nil {
		logger.Error("reference data bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Connect to the bus
	conn, err := bus.Connect(bus.Config{
		URL:           cfg.Bus.URL,
		User:          cfg.Bus.User,
		Password:      cfg.Bus.Password,
		Name:          config.DefaultBusName,
		ReconnectWait: cfg.Bus.ReconnectWait,
		MaxReconnects: cfg.Bus.MaxReconnects,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to bus", "error", err)
		os.Exit(1)
	}

	subscriber := bus.NewSubscriber(conn, logger)
	defer subscriber.Close()

	m := metrics.New()

	// Wire each configured feed: subject -> intake -> processor -> store.
	ordersIntake := buffer.NewIntake[[]byte](cfg.Ingest.OrdersFlushThreshold)
	historiesIntake := buffer.NewIntake[[]byte](cfg.Ingest.HistoriesFlushThreshold)

	orderProcessor := ingest.NewOrderProcessor(ingest.Config{
		FlushThreshold: cfg.Ingest.OrdersFlushThreshold,
		PollInterval:   cfg.Ingest.PollInterval,
		OnCycle:        m.CycleObserver("orders"),
	}, ordersIntake, store.NewOrders(pool), logger)

	historyProcessor := ingest.NewHistoryProcessor(ingest.Config{
		FlushThreshold: cfg.Ingest.HistoriesFlushThreshold,
		PollInterval:   cfg.Ingest.PollInterval,
		OnCycle:        m.CycleObserver("histories"),
	}, historiesIntake, store.NewHistories(pool), logger)

	if cfg.Bus.OrdersSubject != "" {
		if err := subscriber.Subscribe(cfg.Bus.OrdersSubject, ordersIntake); err != nil {
			logger.Error("failed to subscribe", "subject", cfg.Bus.OrdersSubject, "error", err)
			os.Exit(1)
		}
		m.ObserveIntake("orders", ordersIntake)
		m.ObserveProcessor("orders", orderProcessor)
	}
	if cfg.Bus.HistoriesSubject != "" {
		if err := subscriber.Subscribe(cfg.Bus.HistoriesSubject, historiesIntake); err != nil {
			logger.Error("failed to subscribe", "subject", cfg.Bus.HistoriesSubject, "error", err)
			os.Exit(1)
		}
		m.ObserveIntake("histories", historiesIntake)
		m.ObserveProcessor("histories", historyProcessor)
	}

	// Maintenance scheduler
	maintenanceStore := store.NewMaintenance(pool)
	sweeper := maintenance.NewSweeper(maintenance.SweeperConfig{
		Interval:  cfg.Maintenance.SweepInterval,
		Retention: cfg.Maintenance.Retention,
	}, maintenanceStore, logger)
	refresher := maintenance.NewRefresher(maintenance.RefresherConfig{
		Interval: cfg.Maintenance.RefreshInterval,
	}, maintenanceStore, logger)

	m.ObserveSweeper(sweeper)
	m.ObserveRefresher(refresher)

	// Start the long-running loops
	components := []interface {
		Start(context.Context) error
		Stop(context.Context) error
	}{orderProcessor, historyProcessor, sweeper, refresher}

	var g errgroup.Group
	for _, c := range components {
		if err := c.Start(ctx); err != nil {
			logger.Error("failed to start component", "error", err)
			os.Exit(1)
		}
	}

	// Health + metrics server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(cfg, m, pool, subscriber, ordersIntake, historiesIntake, logger),
	}
	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	logger.Info("ingestor running",
		"orders_subject", cfg.Bus.OrdersSubject,
		"histories_subject", cfg.Bus.HistoriesSubject,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, c := range components {
		if err := c.Stop(shutdownCtx); err != nil {
			logger.Warn("component stop failed", "error", err)
		}
	}
	healthServer.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil {
		logger.Warn("health server error", "error", err)
	}

	logger.Info("ingestor stopped")
}

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(
	cfg *config.IngestorConfig,
	m *metrics.Metrics,
	pool interface {
		Ping(context.Context) error
	},
	subscriber *bus.Subscriber,
	ordersIntake, historiesIntake *buffer.Intake[[]byte],
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(cfg.Metrics.Path, m.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		health.Components["bus"] = map[string]interface{}{
			"messages_received": subscriber.Received(),
		}
		health.Components["intake"] = map[string]interface{}{
			"orders":    ordersIntake.Len(),
			"histories": historiesIntake.Len(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
