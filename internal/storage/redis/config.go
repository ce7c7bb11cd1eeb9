package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL bounds how long a room, its roster and its transaction
	// log live after the last write. The coordinator never deletes
	// rooms itself; expiry is the retention policy.
	RoomTTL time.Duration

	// UserTTL applies to identity-directory entries; 0 means no expiry
	UserTTL time.Duration

	// MaxTxRetries bounds optimistic-transaction retries on contention
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      24 * time.Hour,
		UserTTL:      0,
		MaxTxRetries: 10,
	}
}
