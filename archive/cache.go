package archive

import lru "github.com/hashicorp/golang-lru/v2"

// blockCache decides how many Blocks are allowed to keep an open LZMA2
// decompressor at once. Every successful read touches the block it read
// from; a cache may use that to evict the decompressor of a block that
// hasn't been touched recently, bounding memory use for streams with many
// blocks at the cost of re-decompressing from the block start on the next
// read.
type blockCache interface {
	touch(b *Block)
}

// keepCache never evicts: every block that has been read keeps its
// decompressor open for the lifetime of the stream. Opt in via
// Options.CacheStrategy when blocks are read roughly in order and
// decompression restarts would be wasted work; CacheRolling is the
// default.
type keepCache struct{}

func (keepCache) touch(*Block) {}

// rollingCache keeps at most capacity blocks' decompressors open, evicting
// the least-recently-touched block's decompressor (not the Block itself,
// which the stream's floor map still owns) once the cap is exceeded.
type rollingCache struct {
	lru *lru.Cache[*Block, struct{}]
}

// defaultRollingCap is the eviction cap used when Options doesn't override
// it: enough blocks to cover typical striped random access without
// unbounded decompressor memory.
const defaultRollingCap = 8

func newRollingCache(capacity int) *rollingCache {
	if capacity <= 0 {
		capacity = defaultRollingCap
	}
	c, _ := lru.NewWithEvict[*Block, struct{}](capacity, func(b *Block, _ struct{}) {
		b.decomp = nil
		b.checker = nil
		b.decompPos = 0
		b.validated = false
	})
	return &rollingCache{lru: c}
}

func (r *rollingCache) touch(b *Block) {
	r.lru.Add(b, struct{}{})
}
