package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache backs the snapshot cache with Redis so several instances can
// share one upstream budget. Failures degrade to cache misses; the pipeline
// never blocks on Redis being healthy.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache connects a Redis-backed cache. The connection is verified
// eagerly so a misconfigured address fails at startup, not mid-scan.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client, keyPrefix: "dexpulse:snapshot:"}, nil
}

// Get returns the cached value for key, treating any Redis error as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("redis cache get failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores a value with TTL. Write errors are logged and dropped; the
// caller already has the fresh upstream response in hand.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("redis cache set failed")
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
