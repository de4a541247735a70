// Package datacache is a byte-budgeted cache of
// already-evaluated data path reads, keyed by (frame, path identity).
// Built on golang-lru/v2 rather than hand-written eviction bookkeeping.
package datacache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
)

// key is the cache key: a frame number plus the compiled path's own
// pointer identity. Two DataPaths with identical source text but
// distinct identities (e.g. compiled against different layouts) must
// never be confused, so identity — not the source string — is what keys
// the cache.
type key struct {
	frame uint32
	path  *datapath.DataPath
}

// entry pairs a cached value with the approximate byte cost charged
// against the budget.
type entry struct {
	value datatype.Value
	size  int
}

// Cache holds evaluated reads up to a total approximate byte budget,
// evicting least-recently-used entries once the budget is exceeded.
type Cache struct {
	mu     sync.Mutex
	budget int
	used   int
	lru    *lru.Cache[key, entry]

	hits   uint64
	misses uint64
}

// New returns a Cache that evicts to stay within budgetBytes. capHint
// bounds the underlying LRU's entry count as a backstop in case many
// entries are cheaper than estimated; it should comfortably exceed
// budgetBytes / (smallest expected entry size).
func New(budgetBytes int, capHint int) (*Cache, error) {
	c := &Cache{budget: budgetBytes}
	inner, err := lru.NewWithEvict[key, entry](capHint, func(k key, e entry) {
		c.used -= e.size
	})
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

// Get returns the cached value for (frame, path), if present.
func (c *Cache) Get(frame uint32, path *datapath.DataPath) (datatype.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key{frame, path})
	if ok {
		c.hits++
		return e.value, true
	}
	c.misses++
	return datatype.Value{}, false
}

// Put stores value for (frame, path), evicting older entries if the
// budget is now exceeded.
func (c *Cache) Put(frame uint32, path *datapath.DataPath, value datatype.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := approxSize(value)
	k := key{frame, path}
	if old, ok := c.lru.Peek(k); ok {
		c.used -= old.size
	}
	c.lru.Add(k, entry{value: value, size: size})
	c.used += size
	for c.used > c.budget {
		_, _, evicted := c.lru.RemoveOldest()
		if !evicted {
			break
		}
	}
}

// Invalidate drops every cached entry for a frame >= fromFrame, per
// "invalidation set applies to the cache too" rule.
func (c *Cache) Invalidate(fromFrame uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.lru.Keys() {
		if k.frame >= fromFrame {
			c.lru.Remove(k)
		}
	}
}

// Stats returns the running hit/miss counters, for diagnostics.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// approxSize estimates the memory cost of value for budget accounting.
// It doesn't need to be exact, only monotone in the value's actual size.
func approxSize(v datatype.Value) int {
	const base = 32
	switch v.Kind {
	case datatype.ValueInt:
		if v.Int == nil {
			return base
		}
		return base + len(v.Int.Bits())*8
	case datatype.ValueString:
		return base + len(v.Bytes)
	case datatype.ValueStruct:
		size := base
		for _, nv := range v.Struct {
			size += len(nv.Name) + approxSize(nv.Value)
		}
		return size
	case datatype.ValueArray:
		size := base
		for _, e := range v.Array {
			size += approxSize(e)
		}
		return size
	default:
		return base
	}
}
