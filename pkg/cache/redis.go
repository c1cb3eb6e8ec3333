package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed cache for multi-instance serving, where
// every replica should see the same converted documents.
type RedisCache struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password is optional ("" for no auth).
	Password string
	// DB selects the Redis logical database.
	DB int
}

// NewRedisCache creates a Redis-backed cache. The client connects lazily,
// so construction succeeds without a reachable server; operations surface
// connection errors.
func NewRedisCache(cfg RedisConfig) (Cache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis. A zero TTL stores without expiration.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
