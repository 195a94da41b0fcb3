package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Participants are connection-scoped and disappear quickly
	// on their own; matches and resolved cancellations are kept longer so a
	// restarted process can still answer idempotence checks.
	ParticipantTTL  time.Duration
	ChallengeTTL    time.Duration
	MatchTTL        time.Duration
	CancellationTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		ParticipantTTL:  6 * time.Hour,
		ChallengeTTL:    24 * time.Hour,
		MatchTTL:        24 * time.Hour,
		CancellationTTL: 24 * time.Hour,
	}
}
