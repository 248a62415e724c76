package perf

import "testing"

func TestChunkCachePutGet(t *testing.T) {
	c := NewChunkCache(1024, 0.2)
	key := ChunkKey{Variable: "vals_nod_var1", Chunk: 0}
	c.Put(key, []byte("hello"))

	got, ok := c.Get(key)
	if !ok || string(got) != "hello" {
		t.Fatalf("expected cached value, got %q ok=%v", got, ok)
	}
}

func TestChunkCacheEvictsLRU(t *testing.T) {
	c := NewChunkCache(10, 0)
	c.Put(ChunkKey{Variable: "v", Chunk: 0}, make([]byte, 5))
	c.Put(ChunkKey{Variable: "v", Chunk: 1}, make([]byte, 5))
	// touch chunk 0 so chunk 1 becomes LRU
	c.Get(ChunkKey{Variable: "v", Chunk: 0})
	c.Put(ChunkKey{Variable: "v", Chunk: 2}, make([]byte, 5))

	if _, ok := c.Get(ChunkKey{Variable: "v", Chunk: 1}); ok {
		t.Fatalf("expected chunk 1 to have been evicted")
	}
	if _, ok := c.Get(ChunkKey{Variable: "v", Chunk: 0}); !ok {
		t.Fatalf("expected chunk 0 to still be cached")
	}
}

func TestChunkCacheEvictRespectsPreemption(t *testing.T) {
	c := NewChunkCache(100, 0.5) // keep at least 50 bytes after a preemption-bounded eviction
	for i := int64(0); i < 10; i++ {
		c.Put(ChunkKey{Variable: "v", Chunk: i}, make([]byte, 10))
	}
	freed := c.Evict(10)
	if freed < 10 {
		t.Fatalf("expected at least 10 bytes freed, got %d", freed)
	}
	if c.Size() < 50 {
		t.Fatalf("expected eviction to stop near the preemption floor, size=%d", c.Size())
	}
}

func TestChunkCacheOversizedValueNotCached(t *testing.T) {
	c := NewChunkCache(4, 0)
	c.Put(ChunkKey{Variable: "v", Chunk: 0}, make([]byte, 100))
	if _, ok := c.Get(ChunkKey{Variable: "v", Chunk: 0}); ok {
		t.Fatalf("oversized value should not be cached")
	}
}
