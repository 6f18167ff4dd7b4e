package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// KeyPrefix namespaces keys so several servers can share a database
	KeyPrefix string

	PoolSize     int
	MinIdleConns int

	// DialTimeout bounds the startup ping
	DialTimeout time.Duration

	// RoomTTL expires room records. Zero keeps them until deleted.
	RoomTTL time.Duration

	// TxRetries bounds optimistic-lock retries on room updates
	TxRetries int
}

// DefaultConfig returns the defaults for a local Redis
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		KeyPrefix:    DefaultKeyPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		TxRetries:    5,
	}
}
