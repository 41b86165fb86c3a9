// Package cache holds the optional Redis layer used to serve fleet
// snapshots to API readers without touching the simulation lock.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/platform/tuning"
)

// Client wraps the Redis connection. A nil Client is a valid no-op cache,
// which is how the server runs when no Redis address is configured.
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// Connect dials Redis and verifies the connection with a ping. An empty
// address disables caching and returns a nil client.
func Connect(addr, password string, cfg tuning.Config, log *logger.Logger) (*Client, error) {
	if addr == "" {
		log.Info("redis disabled, fleet snapshots served from memory")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     cfg.RedisPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("redis connection established", addr)
	return &Client{rdb: rdb, log: log}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

const snapshotKey = "longhaul:fleet:snapshot"
const snapshotTTL = 30 * time.Second

// StoreSnapshot caches the latest fleet view as JSON.
func (c *Client) StoreSnapshot(ctx context.Context, view interface{}) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey, raw, snapshotTTL).Err()
}

// LoadSnapshot returns the cached fleet view bytes, or ok=false on a miss.
func (c *Client) LoadSnapshot(ctx context.Context) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis snapshot read failed:", err)
		}
		return nil, false
	}
	return raw, true
}

// Invalidate drops the cached snapshot, forcing the next read through.
func (c *Client) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		c.log.Warn("redis invalidate failed:", err)
	}
}
