package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisAnalyticsCache caches derived analytics responses in Redis. It is
// best-effort: any Redis failure is logged and treated as a miss, so the
// facade keeps serving from Mongo when the cache is down.
type RedisAnalyticsCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisAnalyticsCache creates a cache over an existing Redis client.
func NewRedisAnalyticsCache(client *redis.Client, logger zerolog.Logger) *RedisAnalyticsCache {
	return &RedisAnalyticsCache{client: client, logger: logger}
}

// Get returns the cached payload for key, if any.
func (c *RedisAnalyticsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Analytics cache read failed")
		return nil, false
	}
	return val, true
}

// Set stores the payload under key with the given TTL.
func (c *RedisAnalyticsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Analytics cache write failed")
	}
}
