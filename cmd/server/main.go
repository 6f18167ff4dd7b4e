package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/threestones/internal/api"
	"github.com/mcoot/threestones/internal/factory"
	redisstorage "github.com/mcoot/threestones/internal/storage/redis"
	"github.com/mcoot/threestones/internal/storage/sqldb"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg, port, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	restoreCtx, restoreCancel := context.WithTimeout(ctx, 30*time.Second)
	if _, err := app.Restore(restoreCtx); err != nil {
		logger.Warn("could not restore rooms", slog.String("error", err.Error()))
	}
	restoreCancel()

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Rooms:           app.Registry,
		RoomCount:       app.Registry.Count,
		ConnectionCount: app.Hub.ClientCount,
		WebSocket:       app.WSHandler.ServeWS,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = port
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

// configFromEnv builds the factory config and listen port from environment variables
func configFromEnv(logger *slog.Logger) (factory.Config, int, error) {
	cfg := factory.DefaultConfig()
	cfg.Logger = logger

	port, err := envInt("PORT", 8080)
	if err != nil {
		return cfg, 0, err
	}

	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.StorageType = v
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, 0, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		if prefix := os.Getenv("REDIS_KEY_PREFIX"); prefix != "" {
			redisCfg.KeyPrefix = prefix
		}
		if redisCfg.RoomTTL, err = envDuration("REDIS_ROOM_TTL", redisCfg.RoomTTL); err != nil {
			return cfg, 0, err
		}
		cfg.RedisConfig = &redisCfg

	case factory.StorageTypeSQLite, factory.StorageTypePostgres:
		sqlCfg := sqldb.DefaultConfig()
		if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
			sqlCfg.DSN = dsn
		} else if cfg.StorageType == factory.StorageTypePostgres {
			return cfg, 0, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
		if sqlCfg.Migrate, err = envBool("DB_MIGRATE", sqlCfg.Migrate); err != nil {
			return cfg, 0, err
		}
		cfg.SQLConfig = &sqlCfg
	}

	if cfg.Room.GracePeriod, err = envDuration("GRACE_PERIOD", cfg.Room.GracePeriod); err != nil {
		return cfg, 0, err
	}
	if cfg.LobbyDebounce, err = envDuration("LOBBY_DEBOUNCE", cfg.LobbyDebounce); err != nil {
		return cfg, 0, err
	}
	if cfg.Room.ActiveRoomMaxAge, err = envDuration("ACTIVE_ROOM_MAX_AGE", cfg.Room.ActiveRoomMaxAge); err != nil {
		return cfg, 0, err
	}
	if cfg.Room.PasswordCost, err = envInt("PASSWORD_COST", cfg.Room.PasswordCost); err != nil {
		return cfg, 0, err
	}

	return cfg, port, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
