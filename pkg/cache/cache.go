// Package cache implements BlockCache: a concurrent, bounded LRU keyed by
// BlockID, per spec.md §4.5. Unlike the original implementation's single
// reader-writer lock over one linked hash map, this shards the key space by
// hash of BlockID into N independent mutexed LRUs, per the scalable target
// design spec.md §9 proposes.
package cache

import (
	"container/list"
	"hash/maphash"
	"runtime"
	"sync"

	"github.com/bgrewell/dupkit/pkg/blockid"
	"github.com/bgrewell/dupkit/pkg/consts"
)

const maxShards = 16

// Cache is a bounded, concurrent LRU of BLOCK_SIZE-sized blocks keyed by
// blockid.BlockID.
type Cache struct {
	shards []*shard
	seed   maphash.Seed
}

type shard struct {
	mu       sync.Mutex
	ll       *list.List
	index    map[blockid.BlockID]*list.Element
	capacity int
}

type entry struct {
	id   blockid.BlockID
	data []byte
}

// New returns a Cache holding at most maxBlocks blocks in total, sharded
// across GOMAXPROCS(0) (rounded to a power of two, capped at 16) LRUs. The
// shard count is halved until it no longer exceeds maxBlocks, so no shard
// is left with zero capacity.
func New(maxBlocks int) *Cache {
	n := shardCount()
	for n > 1 && n > maxBlocks {
		n >>= 1
	}
	return NewWithShards(maxBlocks, n)
}

// NewWithShards is New with an explicit shard count. A single shard gives
// exact global LRU recency, matching spec.md's reference semantics; this is
// mainly useful for deterministic tests of eviction order, since recency
// with more than one shard is only approximate across the whole cache.
func NewWithShards(maxBlocks, n int) *Cache {
	if n < 1 {
		n = 1
	}
	c := &Cache{
		shards: make([]*shard, n),
		seed:   maphash.MakeSeed(),
	}
	base := maxBlocks / n
	rem := maxBlocks % n
	for i := 0; i < n; i++ {
		capacity := base
		if i < rem {
			capacity++
		}
		c.shards[i] = &shard{
			ll:       list.New(),
			index:    make(map[blockid.BlockID]*list.Element),
			capacity: capacity,
		}
	}
	return c
}

// shardCount picks N = GOMAXPROCS(0) rounded up to a power of two, capped at
// maxShards, floored at 1.
func shardCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	if p > maxShards {
		p = maxShards
	}
	return p
}

func (c *Cache) shardFor(id blockid.BlockID) *shard {
	var h maphash.Hash
	h.SetSeed(c.seed)
	_, _ = h.WriteString(id.Entry.Path)
	var buf [16]byte
	putInt(buf[0:8], id.Entry.Snapshot)
	putInt(buf[8:16], id.Block)
	_, _ = h.Write(buf[:])
	sum := h.Sum64()
	return c.shards[sum&uint64(len(c.shards)-1)]
}

func putInt(b []byte, v int) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

// Read copies up to len(out) bytes of the cached block for id into out and
// returns the number of bytes copied and true on a hit; a cache miss
// returns (0, false) and out is left untouched. A hit promotes id to
// most-recently-used.
func (c *Cache) Read(id blockid.BlockID, out []byte) (int, bool) {
	s := c.shardFor(id)

	s.mu.Lock()
	el, ok := s.index[id]
	if ok {
		s.ll.MoveToFront(el)
	}
	s.mu.Unlock()
	if !ok {
		return 0, false
	}

	s.mu.Lock()
	el, ok = s.index[id]
	if !ok {
		s.mu.Unlock()
		return 0, false
	}
	data := el.Value.(*entry).data
	n := copy(out, data)
	s.mu.Unlock()
	return n, true
}

// Write inserts a new block for id containing up to BLOCK_SIZE bytes of
// data. If id is already present, Write is a no-op and returns (0, false).
// Otherwise it returns the number of bytes stored and true; if the shard is
// at capacity, the least-recently-used block is evicted first. A
// zero-capacity shard never stores anything.
func (c *Cache) Write(id blockid.BlockID, data []byte) (int, bool) {
	if len(data) > consts.BlockSize {
		data = data[:consts.BlockSize]
	}

	s := c.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return 0, false
	}
	if s.capacity == 0 {
		return 0, false
	}

	if s.ll.Len() >= s.capacity {
		oldest := s.ll.Back()
		if oldest != nil {
			s.ll.Remove(oldest)
			delete(s.index, oldest.Value.(*entry).id)
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	el := s.ll.PushFront(&entry{id: id, data: stored})
	s.index[id] = el
	return len(stored), true
}

// Clear empties every shard.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.ll.Init()
		s.index = make(map[blockid.BlockID]*list.Element)
		s.mu.Unlock()
	}
}

// Len returns the total number of blocks currently cached across all
// shards.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.ll.Len()
		s.mu.Unlock()
	}
	return total
}
