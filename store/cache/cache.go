package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/botgpt/internal/profile"
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
// Implementations treat backend failures as misses on Get; Set and Delete
// report them so callers can log and carry on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NilCache never stores anything. Every Get is a miss.
type NilCache struct{}

// NewNilCache creates a no-op cache.
func NewNilCache() *NilCache {
	return &NilCache{}
}

func (NilCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NilCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NilCache) Delete(context.Context, string) error { return nil }

func (NilCache) Close() error { return nil }

// NewFromProfile returns a Redis cache when a Redis URL is configured,
// otherwise an in-process memory cache.
func NewFromProfile(ctx context.Context, p *profile.Profile) (Cache, error) {
	if p.RedisURL == "" {
		slog.Info("using in-memory cache", "ttl", p.CacheTTL)
		mc := NewMemoryCache(DefaultMemoryCapacity, p.CacheTTL)
		mc.StartCleanup(DefaultCleanupInterval)
		return mc, nil
	}

	config, err := RedisConfigFromURL(p.RedisURL)
	if err != nil {
		return nil, err
	}
	config.DefaultTTL = p.CacheTTL
	rc, err := NewRedisCache(config)
	if err != nil {
		return nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		// Keep the client: requests degrade to cache misses until Redis comes back.
		slog.Warn("redis cache unreachable, continuing without cache hits", "error", err)
	} else {
		slog.Info("redis cache connected", "addr", config.Options.Addr)
	}
	return rc, nil
}
