package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/internal/profile"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	require.NoError(t, c.Delete(ctx, "k"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "default", []byte("2"), 0))

	now = now.Add(2 * time.Second)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "default")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "default")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCacheCleanupExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Second))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 0, c.CleanupExpired())
	now = now.Add(2 * time.Second)
	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
}

func TestMemoryCacheStartCleanup(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)
	require.NoError(t, c.Set(ctx, "short", []byte("1"), 10*time.Millisecond))

	c.StartCleanup(5 * time.Millisecond)
	c.StartCleanup(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(3, time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte{byte(i)}, 0))
	}
	// Touch k0 so k1 becomes the oldest.
	_, ok := c.Get(ctx, "k0")
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "k3", []byte{3}, 0))
	assert.Equal(t, 3, c.Size())
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "k0")
	assert.True(t, ok)
}

func TestNilCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NewNilCache()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}

func TestRedisCacheUnreachableDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	config, err := RedisConfigFromURL("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	config.Options.DialTimeout = 100 * time.Millisecond
	config.Options.MaxRetries = -1

	c, err := NewRedisCache(config)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, c.Delete(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
}

func TestRedisConfigFromURL(t *testing.T) {
	config, err := RedisConfigFromURL("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", config.Options.Addr)
	assert.Equal(t, "secret", config.Options.Password)
	assert.Equal(t, 2, config.Options.DB)
	assert.Equal(t, DefaultKeyPrefix, config.KeyPrefix)

	_, err = RedisConfigFromURL("http://nope")
	assert.Error(t, err)
}

func TestNewFromProfile(t *testing.T) {
	ctx := context.Background()

	c, err := NewFromProfile(ctx, &profile.Profile{CacheTTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	require.NoError(t, c.Close())

	_, err = NewFromProfile(ctx, &profile.Profile{RedisURL: "::bad::"})
	assert.Error(t, err)
}
