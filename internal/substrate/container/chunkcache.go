package container

import "github.com/meshio/exodus/internal/perf"

// AttachCache wires a chunk cache into an already-open container,
// replacing any cache it was opened or created with, so that one
// perf.ChunkCache serves every variable it reads, keyed by
// (variable, chunk index) per spec.md section 4.2.
func (c *Container) AttachCache(cache *perf.ChunkCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = cache
}

// CacheStats reports the attached chunk cache's current occupancy, or
// the zero value if no cache is attached.
func (c *Container) CacheStats() perf.Stats {
	c.mu.RLock()
	cache := c.cache
	c.mu.RUnlock()
	if cache == nil {
		return perf.Stats{}
	}
	return cache.Stats()
}
