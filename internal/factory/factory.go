package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/dependencies/random"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/services/cancellation"
	"github.com/pairwise-games/stakeroom/internal/services/challenge"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
	"github.com/pairwise-games/stakeroom/internal/storage"
	"github.com/pairwise-games/stakeroom/internal/storage/memory"
	redisstorage "github.com/pairwise-games/stakeroom/internal/storage/redis"
	"github.com/pairwise-games/stakeroom/internal/stream"
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
	Gate         balance.Gate
	Registry     *registry.Registry
	Book         *challenge.Book
	Coordinator  *match.Coordinator
	Cancellation *cancellation.Workflow
	AuthService  *auth.Service
	Hub          *stream.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// MatchConfig holds coordinator settings (reconnect grace)
	MatchConfig match.Config
	// OpeningBalance is the balance granted to accounts the in-process
	// ledger has not seen before
	OpeningBalance int64
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
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
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

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}

	gate := balance.NewLedger(cfg.OpeningBalance, logger)

	return newWithDependencies(store, clk, rnd, gate, authCfg, cfg.MatchConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	gate balance.Gate,
	authCfg auth.Config,
	matchCfg match.Config,
	logger *slog.Logger,
) *App {
	hub := stream.NewHub(logger)
	reg := registry.New(store, clk, rnd, logger)
	book := challenge.NewBook(store, gate, clk, rnd, logger)
	coordinator := match.NewCoordinator(store, book, gate, reg, hub, clk, matchCfg, logger)
	workflow := cancellation.NewWorkflow(store, coordinator, gate, clk, logger)
	authService := auth.New(clk, authCfg)

	// The stream's close is the single leave event; the coordinator owns
	// the cleanup it triggers
	reg.SetLeaveHandler(coordinator.HandleDisconnect)

	return &App{
		Storage:      store,
		Clock:        clk,
		Random:       rnd,
		Gate:         gate,
		Registry:     reg,
		Book:         book,
		Coordinator:  coordinator,
		Cancellation: workflow,
		AuthService:  authService,
		Hub:          hub,
	}
}
