package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pairwise-games/stakeroom/internal/api"
	"github.com/pairwise-games/stakeroom/internal/factory"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	redisstorage "github.com/pairwise-games/stakeroom/internal/storage/redis"
	"github.com/pairwise-games/stakeroom/internal/sweeper"
)

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		AuthConfig: auth.Config{
			ArbiterKeyHash: os.Getenv("ARBITER_KEY_HASH"),
		},
		MatchConfig: match.Config{
			ReconnectGrace: envDuration(logger, "RECONNECT_GRACE", 0),
		},
		OpeningBalance: envInt64(logger, "OPENING_BALANCE", 1000),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	if cfg.AuthConfig.ArbiterKeyHash == "" {
		logger.Warn("ARBITER_KEY_HASH not set - arbitration endpoints disabled")
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start the challenge expiry sweeper
	sweeperCfg := sweeper.DefaultConfig()
	sweeperCfg.Interval = envDuration(logger, "SWEEP_INTERVAL", sweeperCfg.Interval)
	sweeperCfg.ChallengeTTL = envDuration(logger, "CHALLENGE_TTL", sweeperCfg.ChallengeTTL)
	swp, err := sweeper.New(app.Coordinator, sweeperCfg, logger)
	if err != nil {
		logger.Error("failed to create sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := swp.Start(); err != nil {
		logger.Error("failed to start sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		Coordinator:  app.Coordinator,
		Cancellation: app.Cancellation,
		Registry:     app.Registry,
		Gate:         app.Gate,
		Hub:          app.Hub,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid PORT", slog.String("value", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := swp.Stop(); err != nil {
			logger.Error("sweeper shutdown error", slog.String("error", err.Error()))
		}
		app.Coordinator.Shutdown()
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// envDuration reads a duration from the environment, with a default
func envDuration(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration in environment, using default",
			slog.String("key", key), slog.String("value", v))
		return def
	}
	return d
}

// envInt64 reads an int64 from the environment, with a default
func envInt64(logger *slog.Logger, key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logger.Warn("invalid integer in environment, using default",
			slog.String("key", key), slog.String("value", v))
		return def
	}
	return n
}
