package conversation

import "sync"

// keyGenerations counts invalidations per cache key. A loader records the
// generation before reading the store and only keeps its cache fill if no
// invalidation happened in between.
type keyGenerations struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func newKeyGenerations() *keyGenerations {
	return &keyGenerations{gens: make(map[string]uint64)}
}

func (g *keyGenerations) current(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[key]
}

func (g *keyGenerations) bump(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[key]++
}
