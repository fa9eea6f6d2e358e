package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TeamTTL expires saved teams. Zero keeps them forever.
	TeamTTL time.Duration

	// LogRetention is the number of registration logs kept in the log list
	LogRetention int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		TeamTTL:      7 * 24 * time.Hour,
		LogRetention: 500,
	}
}
