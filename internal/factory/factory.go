package factory

import (
	"errors"
	"io"
	"log/slog"

	"bankroom/internal/api/sse"
	"bankroom/internal/dependencies/clock"
	"bankroom/internal/dependencies/random"
	"bankroom/internal/services/identity"
	"bankroom/internal/services/ledger"
	"bankroom/internal/services/room"
	"bankroom/internal/services/watch"
	"bankroom/internal/storage"
	"bankroom/internal/storage/memory"
	redisstorage "bankroom/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IdentityService *identity.Service
	RoomController  *room.Controller
	LedgerService   *ledger.Service
	WatchService    *watch.Service
	HubManager      *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// IdentityConfig holds configuration for the identity service
	// (optional). If zero value, defaults to identity.DefaultConfig().
	IdentityConfig identity.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	identityCfg := cfg.IdentityConfig
	if identityCfg.SessionDuration == 0 {
		identityCfg = identity.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, identityCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, identityCfg identity.Config, logger *slog.Logger) *App {
	identityService := identity.New(store, clk, identityCfg)
	roomController := room.NewController(store, identityService, clk, rnd, logger)
	ledgerService := ledger.New(store, clk, logger)
	watchService := watch.New(store, logger)
	hubManager := sse.NewHubManager(watchService, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		IdentityService: identityService,
		RoomController:  roomController,
		LedgerService:   ledgerService,
		WatchService:    watchService,
		HubManager:      hubManager,
	}
}
