package archive

import "testing"

func TestKeepCacheNeverEvicts(t *testing.T) {
	c := keepCache{}
	b := &Block{decomp: nil, decompPos: 5, validated: true}
	c.touch(b)
	if b.decompPos != 5 || !b.validated {
		t.Errorf("keepCache.touch mutated block state: %+v", b)
	}
}

func TestRollingCacheEvictsOldest(t *testing.T) {
	c := newRollingCache(2)
	blocks := make([]*Block, 3)
	for i := range blocks {
		blocks[i] = &Block{decompPos: int64(i + 1), validated: true}
	}

	c.touch(blocks[0])
	c.touch(blocks[1])
	// Capacity is 2: touching a third block evicts the least-recently-used
	// one (blocks[0]), which newRollingCache's eviction callback resets.
	c.touch(blocks[2])

	if blocks[0].decompPos != 0 || blocks[0].validated {
		t.Errorf("blocks[0] not reset on eviction: %+v", blocks[0])
	}
	if blocks[1].decompPos == 0 || blocks[2].decompPos == 0 {
		t.Errorf("still-cached blocks unexpectedly reset: %+v %+v", blocks[1], blocks[2])
	}
}

func TestNewRollingCacheDefaultsNonPositiveCapacity(t *testing.T) {
	c := newRollingCache(0)
	if c.lru.Len() != 0 {
		t.Fatalf("fresh cache Len() = %d, want 0", c.lru.Len())
	}
	// A non-positive capacity should fall back to defaultRollingCap rather
	// than producing a cache that can hold nothing.
	for i := 0; i < defaultRollingCap; i++ {
		c.touch(&Block{decompPos: int64(i + 1)})
	}
	if c.lru.Len() != defaultRollingCap {
		t.Errorf("Len() = %d, want %d", c.lru.Len(), defaultRollingCap)
	}
}
