package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tokenrace/tokenrace/internal/dependencies/clock"
	"github.com/tokenrace/tokenrace/internal/dependencies/random"
	"github.com/tokenrace/tokenrace/internal/services/auth"
	"github.com/tokenrace/tokenrace/internal/services/game"
	"github.com/tokenrace/tokenrace/internal/services/room"
	"github.com/tokenrace/tokenrace/internal/storage"
	"github.com/tokenrace/tokenrace/internal/storage/memory"
	redisstorage "github.com/tokenrace/tokenrace/internal/storage/redis"
	"github.com/tokenrace/tokenrace/internal/ws"
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
	AuthService *auth.Service
	RoomService *room.Service
	GameService *game.Service

	// Realtime core
	Registry    *ws.Registry
	Broadcaster *ws.Broadcaster
	WSHandler   *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig configures token issuing and verification
	AuthConfig auth.Config
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

	return NewWithDependencies(store, clock.New(), random.New(), cfg.AuthConfig, logger), nil
}

// NewWithDependencies creates an App with the given dependencies (useful for testing)
func NewWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, authCfg, logger)
	roomService := room.New(store, clk, logger)
	gameService := game.New(clk, rnd, logger)

	registry := ws.NewRegistry()
	broadcaster := ws.NewBroadcaster(registry, logger)
	wsHandler := ws.NewHandler(authService, roomService, gameService, registry, broadcaster, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		AuthService: authService,
		RoomService: roomService,
		GameService: gameService,
		Registry:    registry,
		Broadcaster: broadcaster,
		WSHandler:   wsHandler,
	}
}
