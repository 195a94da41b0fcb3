package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/pairwise-games/stakeroom/internal/services/match"
)

// Config holds sweeper scheduling settings
type Config struct {
	// Interval between expiry sweeps
	Interval time.Duration
	// ChallengeTTL is how long an open challenge may sit unaccepted
	ChallengeTTL time.Duration
}

// DefaultConfig returns default sweeper configuration
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		ChallengeTTL: 10 * time.Minute,
	}
}

// Sweeper periodically expires stale open challenges
type Sweeper struct {
	coordinator *match.Coordinator
	cfg         Config
	logger      *slog.Logger
	scheduler   gocron.Scheduler
}

// New creates a new Sweeper
func New(coordinator *match.Coordinator, cfg Config, logger *slog.Logger) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "sweeper")),
		scheduler:   scheduler,
	}, nil
}

// Start schedules the sweep job and begins running it
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	s.logger.Info("sweeper started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("challenge_ttl", s.cfg.ChallengeTTL),
	)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	removed, err := s.coordinator.ExpireChallenges(ctx, s.cfg.ChallengeTTL)
	if err != nil {
		s.logger.Error("challenge expiry sweep failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		s.logger.Info("expired stale challenges", slog.Int("count", removed))
	}
}
