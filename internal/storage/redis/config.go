package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Writer lock settings. LockTTL bounds how long a crashed writer can hold
	// the lock; it must exceed the longest transaction.
	LockTTL           time.Duration
	LockTimeout       time.Duration
	LockRetryInterval time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		LockTTL:           30 * time.Second,
		LockTimeout:       10 * time.Second,
		LockRetryInterval: 10 * time.Millisecond,
	}
}
