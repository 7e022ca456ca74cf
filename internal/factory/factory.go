package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/comate/comate/internal/dependencies/clock"
	"github.com/comate/comate/internal/dependencies/random"
	"github.com/comate/comate/internal/services/auth"
	"github.com/comate/comate/internal/services/catalog"
	"github.com/comate/comate/internal/services/lifecycle"
	"github.com/comate/comate/internal/services/matching"
	"github.com/comate/comate/internal/services/registration"
	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/memory"
	"github.com/comate/comate/internal/storage/postgres"
	redisstorage "github.com/comate/comate/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Registration *registration.Service
	Lifecycle    *lifecycle.Service
	Matching     *matching.Service
	Catalog      *catalog.Service
	AdminGuard   *auth.Guard
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// AdminKeyHash is the bcrypt hash guarding admin operations; empty leaves them open
	AdminKeyHash string
	// Lifecycle holds leave behavior settings
	Lifecycle lifecycle.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	guard, err := auth.NewGuard(cfg.AdminKeyHash, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), guard, cfg.Lifecycle, logger), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, *cfg.PostgresConfig)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	guard *auth.Guard,
	lifecycleCfg lifecycle.Config,
	logger *slog.Logger,
) *App {
	return &App{
		Storage:      store,
		Clock:        clk,
		Random:       rnd,
		Logger:       logger,
		Registration: registration.New(store, clk, rnd, logger),
		Lifecycle:    lifecycle.New(store, logger, lifecycleCfg),
		Matching:     matching.New(store, clk, rnd, logger),
		Catalog:      catalog.New(store, logger),
		AdminGuard:   guard,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
