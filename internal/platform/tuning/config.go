// Package tuning provides concurrency and buffer sizing for high load.
package tuning

import (
	"runtime"
)

// Config holds tuned parameters for the server runtime.
type Config struct {
	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisPoolSize  int

	// Fast-forward batching
	MaxCatchUpTicksPerRequest int

	// WebSocket limits
	MaxClients int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,
		RedisPoolSize:  numCPU * 2,

		// A full in-game year at one-minute ticks is ~525k calls; cap requests
		// well below that so a single HTTP call cannot stall the ticker.
		MaxCatchUpTicksPerRequest: 100_000,

		MaxClients: 200,
	}
}
