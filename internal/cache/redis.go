package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces relay keys in a shared Redis.
const DefaultRedisPrefix = "speech-relay:tts:"

// Redis is a Store shared between relay instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// NewRedis wraps an existing client. A zero ttl keeps entries until Redis
// evicts them.
func NewRedis(client *redis.Client, ttl time.Duration, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		log:    logger.With("component", "cache", "backend", "redis"),
	}
}

// OpenRedis parses a redis:// URL and checks connectivity.
func OpenRedis(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return NewRedis(client, ttl, "", logger), nil
}

// Get returns the cached bytes for key. Errors other than a miss are logged.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Put stores data under key with the configured TTL.
func (r *Redis) Put(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
