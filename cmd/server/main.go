package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/comate/comate/internal/api"
	"github.com/comate/comate/internal/config"
	"github.com/comate/comate/internal/factory"
	"github.com/comate/comate/internal/services/lifecycle"
	"github.com/comate/comate/internal/services/matching"
	"github.com/comate/comate/internal/storage/postgres"
	redisstorage "github.com/comate/comate/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:       logger,
		StorageType:  cfg.Storage.Type,
		AdminKeyHash: cfg.AdminKeyHash,
		Lifecycle: lifecycle.Config{
			ReleasePartnerOnLeave: cfg.Match.ReleasePartnerOnLeave,
		},
	}

	switch cfg.Storage.Type {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Storage.DatabaseURL
		factoryCfg.PostgresConfig = &pgCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Question catalog
	if cfg.QuestionsFile != "" {
		err = app.Catalog.LoadFromFile(ctx, cfg.QuestionsFile)
	} else {
		err = app.Catalog.SeedDefaults(ctx)
	}
	if err != nil {
		logger.Error("failed to load question catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Optional periodic batch matching
	scheduler := matching.NewScheduler(app.Matching, cfg.Match.Interval, logger)
	if scheduler.Enabled() {
		go scheduler.Run(ctx)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Registration: app.Registration,
		Lifecycle:    app.Lifecycle,
		Matching:     app.Matching,
		Catalog:      app.Catalog,
		AdminGuard:   app.AdminGuard,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	server := api.NewServer(api.WithCORS(router, cfg.Server.CORSAllowedOrigins), serverConfig, logger)

	logger.Info("server starting",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.Duration("match_interval", cfg.Match.Interval),
	)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
