package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/threestones/internal/dependencies/clock"
	"github.com/mcoot/threestones/internal/dependencies/random"
	"github.com/mcoot/threestones/internal/services/game"
	"github.com/mcoot/threestones/internal/services/lobby"
	"github.com/mcoot/threestones/internal/services/room"
	"github.com/mcoot/threestones/internal/services/session"
	"github.com/mcoot/threestones/internal/storage"
	"github.com/mcoot/threestones/internal/storage/memory"
	redisstorage "github.com/mcoot/threestones/internal/storage/redis"
	"github.com/mcoot/threestones/internal/storage/sqldb"
	"github.com/mcoot/threestones/internal/storage/writebehind"
	"github.com/mcoot/threestones/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Writer  *writebehind.Writer

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Sessions   *session.Table
	Registry   *room.Registry
	Engine     *game.Engine
	Controller *room.Controller
	Lobby      *lobby.Refresher

	// Realtime transport
	Hub        *ws.Hub
	Dispatcher *ws.Dispatcher
	WSHandler  *ws.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "sqlite" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (required if StorageType is "sqlite" or "postgres")
	// The driver is chosen by StorageType
	SQLConfig *sqldb.Config
	// Room holds room lifecycle settings
	// If zero value, defaults to room.DefaultConfig()
	Room room.Config
	// LobbyDebounce coalesces lobby refreshes; zero publishes at once
	LobbyDebounce time.Duration
	// Writer holds write-behind queue settings
	// If zero value, defaults to writebehind.DefaultConfig()
	Writer writebehind.Config
}

// DefaultConfig returns an in-memory configuration with default settings
func DefaultConfig() Config {
	return Config{
		StorageType:   StorageTypeMemory,
		Room:          room.DefaultConfig(),
		LobbyDebounce: lobby.DefaultConfig().Debounce,
		Writer:        writebehind.DefaultConfig(),
	}
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Room.CodeLength == 0 {
		cfg.Room = room.DefaultConfig()
	}
	if cfg.Writer.QueueSize == 0 {
		cfg.Writer = writebehind.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

func openStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Storage, error) {
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
	case StorageTypeSQLite, StorageTypePostgres:
		if cfg.SQLConfig == nil {
			return nil, errors.New("SQLConfig required when StorageType is sqlite or postgres")
		}
		sqlCfg := *cfg.SQLConfig
		sqlCfg.Driver = sqldb.DriverSQLite
		if storageType == StorageTypePostgres {
			sqlCfg.Driver = sqldb.DriverPostgres
		}
		return sqldb.Open(ctx, sqlCfg, logger)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis', 'sqlite' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	writer := writebehind.New(store, cfg.Writer, logger)
	sessions := session.NewTable()
	registry := room.NewRegistry(store, sessions, clk, rnd, cfg.Room, logger)
	engine := game.NewEngine(rnd)

	hub := ws.NewHub(logger)
	go hub.Run()

	lobbyCfg := lobby.DefaultConfig()
	lobbyCfg.Debounce = cfg.LobbyDebounce
	refresher := lobby.NewRefresher(registry, hub, clk, lobbyCfg, logger)

	controller := room.NewController(registry, sessions, store, writer, engine, hub, refresher, clk, cfg.Room, logger)
	dispatcher := ws.NewDispatcher(controller, hub, clk, logger)
	wsHandler := ws.NewHandler(hub, controller, dispatcher, logger)

	return &App{
		Storage:    store,
		Writer:     writer,
		Clock:      clk,
		Random:     rnd,
		Sessions:   sessions,
		Registry:   registry,
		Engine:     engine,
		Controller: controller,
		Lobby:      refresher,
		Hub:        hub,
		Dispatcher: dispatcher,
		WSHandler:  wsHandler,
		logger:     logger,
	}
}

// Restore preloads recently active rooms from storage
func (a *App) Restore(ctx context.Context) (int, error) {
	return a.Registry.Restore(ctx)
}

// Close stops background work, drains pending writes and closes storage
func (a *App) Close() error {
	a.Lobby.Close()
	a.Hub.Close()
	a.Writer.Close()
	return a.Storage.Close()
}
