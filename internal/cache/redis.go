package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache stores raw API payloads so repeated runs inside the TTL
// window do not hit the upstream API again. The pipeline treats it as
// strictly optional: a miss or an unreachable Redis means a direct fetch.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds Redis cache configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().
		Str("addr", fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)).
		Dur("ttl", cfg.TTL).
		Msg("Redis cache connected")

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// StandingsKey builds the cache key for a league season payload
func StandingsKey(league, season int) string {
	return fmt.Sprintf("standings:%d:%d", league, season)
}

// Get returns the cached payload, or nil on a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache key %q: %w", key, err)
	}
	return data, nil
}

// Set stores a payload under the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
