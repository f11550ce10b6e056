package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCacheConfig holds the Redis connection configuration.
type RedisCacheConfig struct {
	Options    *redis.Options
	KeyPrefix  string
	DefaultTTL time.Duration
}

// DefaultKeyPrefix namespaces every key written by this service.
const DefaultKeyPrefix = "botgpt:"

// RedisConfigFromURL parses a redis:// or rediss:// URL.
func RedisConfigFromURL(url string) (*RedisCacheConfig, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid redis url")
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	return &RedisCacheConfig{
		Options:    opts,
		KeyPrefix:  DefaultKeyPrefix,
		DefaultTTL: DefaultMemoryTTL,
	}, nil
}

// RedisCache is a Redis-backed cache shared between instances.
type RedisCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// NewRedisCache creates a new Redis cache. It does not contact the server.
func NewRedisCache(config *RedisCacheConfig) (*RedisCache, error) {
	if config == nil || config.Options == nil {
		return nil, pkgerrors.New("redis options are required")
	}
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &RedisCache{
		client:     redis.NewClient(config.Options),
		keyPrefix:  config.KeyPrefix,
		defaultTTL: ttl,
	}, nil
}

// Ping checks connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns a miss on any failure, including an unreachable server.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.fullKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("failed to get cache value", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, r.fullKey(key), value, ttl).Err(); err != nil {
		return pkgerrors.Wrapf(err, "failed to set cache key %s", key)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return pkgerrors.Wrapf(err, "failed to delete cache key %s", key)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) fullKey(key string) string {
	return r.keyPrefix + key
}
