package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	DefaultMemoryCapacity = 10000
	DefaultMemoryTTL      = time.Hour
	// DefaultCleanupInterval is how often StartCleanup sweeps expired entries.
	DefaultCleanupInterval = 5 * time.Minute
)

// MemoryCache is an LRU cache with TTL support, used when no Redis is configured.
type MemoryCache struct {
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time
	mu         sync.Mutex

	entries map[string]*entry
	order   *list.List // front is most recently used

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// NewMemoryCache creates a new memory cache.
func NewMemoryCache(capacity int, defaultTTL time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultMemoryTTL
	}
	return &MemoryCache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	return cloneBytes(e.value), true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if e, ok := c.entries[key]; ok {
		e.value = cloneBytes(value)
		e.expiresAt = expiresAt
		c.order.MoveToFront(e.element)
		return nil
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	e := &entry{
		key:       key,
		value:     cloneBytes(value),
		expiresAt: expiresAt,
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeEntry(e)
	}
	return nil
}

// Close stops the cleanup loop, if any, and drops every entry.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		c.wg.Wait()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
	return nil
}

// Size returns the number of entries, expired ones included until they are touched.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartCleanup sweeps expired entries every interval until Close.
// Calling it again while a loop is running has no effect.
func (c *MemoryCache) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.cleanupLoop(ctx, interval)
}

func (c *MemoryCache) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupExpired()
		}
	}
}

// CleanupExpired removes all expired entries and returns how many were removed.
func (c *MemoryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []*entry
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeEntry(e)
	}
	return len(expired)
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *MemoryCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry))
}

// Must be called with lock held.
func (c *MemoryCache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
