// Package cache mirrors hot combat sessions in Redis. It is a read
// accelerator in front of Postgres, never the source of truth: every write
// here is best-effort, and a failure degrades to a cache miss, not an error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/strikepoint/server/internal/config"
	"github.com/strikepoint/server/internal/game/encounter"
)

const sessionKeyPrefix = "combat:session:"

// NewClient connects a Redis client from configuration and verifies the
// connection with a ping.
//
// Precondition: cfg.Address must be non-empty.
// Postcondition: Returns a connected client or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// SessionCache implements encounter.SessionCache on Redis. Entries carry the
// session TTL so an idle session ages out of the cache no later than it
// expires in Postgres.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionCache creates a SessionCache writing entries with the given TTL.
//
// Precondition: client is connected; ttl is positive; logger is non-nil.
func NewSessionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionCache {
	return &SessionCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached session, or a miss when the key is absent, the
// payload does not parse, or Redis is unreachable.
func (c *SessionCache) Get(ctx context.Context, id string) (*encounter.Session, bool) {
	payload, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("session cache get failed",
			zap.String("combat_id", id),
			zap.Error(err))
		return nil, false
	}

	var s encounter.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		c.logger.Warn("session cache entry does not parse, dropping it",
			zap.String("combat_id", id),
			zap.Error(err))
		c.Drop(ctx, id)
		return nil, false
	}
	return &s, true
}

// Put stores the session under its ID with the cache TTL.
func (c *SessionCache) Put(ctx context.Context, s *encounter.Session) {
	payload, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn("session cache marshal failed",
			zap.String("combat_id", s.ID),
			zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, sessionKey(s.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache put failed",
			zap.String("combat_id", s.ID),
			zap.Error(err))
	}
}

// Drop removes the session from the cache. Dropping an absent key is a no-op.
func (c *SessionCache) Drop(ctx context.Context, id string) {
	if err := c.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		c.logger.Warn("session cache drop failed",
			zap.String("combat_id", id),
			zap.Error(err))
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
