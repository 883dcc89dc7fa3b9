package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/inkfolio/internal/config"
	"github.com/inkfolio/internal/logging"
)

// ErrCacheDisabled is returned when cache operations are attempted but the
// cache is disabled.
var ErrCacheDisabled = fmt.Errorf("cache is disabled")

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = redis.Nil

// Cache wraps the redis client used as a read cache for post analytics.
// A nil *Cache is valid and behaves as a disabled cache.
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// New creates a redis cache client, or nil when the cache is disabled.
func New(cfg config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.L().Info("redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logging.L().Info("redis connection established")

	return &Cache{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrCacheDisabled
	}
	return c.client.Get(c.ctx, key).Result()
}

// Set stores a value with a TTL.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Set(c.ctx, key, value, ttl).Err()
}

// Delete removes keys from the cache.
func (c *Cache) Delete(keys ...string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(c.ctx, keys...).Err()
}

// Close closes the redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
