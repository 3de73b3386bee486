package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ViewCache is a generic JSON-backed Redis cache. Bind it to a value type T;
// a zero ttl stores keys without expiry.
type ViewCache[T any] struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewViewCache[T any](client *redis.Client, ttl time.Duration, log zerolog.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, log: log}
}

// Get returns (nil, false) on a miss, a Redis failure, or a value that no
// longer decodes.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return nil, false
	}
	return &v, true
}

// Set is best effort: failures are logged, never returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}
