package redis

import "time"

// Config holds Redis storage configuration
type Config struct {
	// URL is the Redis connection URL (redis://...)
	URL string

	// Connection pool settings
	PoolSize     int
	MinIdleConns int

	// FinishedRoomTTL is applied to a room's key once its status reaches
	// FINISHED, so dead rooms age out of the store. Zero disables expiry.
	FinishedRoomTTL time.Duration
}

// DefaultConfig returns sensible defaults for redis storage
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		FinishedRoomTTL: 24 * time.Hour,
	}
}
