package datapath

import "sync"

// Cache compiles and memoizes DataPaths by source string. Path identity
// for edit lists and caches must be the compiled handle's own identity,
// not a structural comparison recomputed on every lookup — Cache is what
// makes "the same source string always returns the same *DataPath
// pointer" true, so callers can key maps on the pointer itself.
type Cache struct {
	mu      sync.Mutex
	layout  Layout
	entries map[string]*DataPath
}

// NewCache returns a compile cache resolving paths against layout.
func NewCache(layout Layout) *Cache {
	return &Cache{layout: layout, entries: make(map[string]*DataPath)}
}

// Compile returns the cached *DataPath for src, compiling and storing it
// on first use. A failed compile is not cached — callers fixing a typo
// and retrying the same source shouldn't see a stale error.
func (c *Cache) Compile(src string) (*DataPath, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[src]; ok {
		return p, nil
	}
	p, err := Compile(src, c.layout)
	if err != nil {
		return nil, err
	}
	c.entries[src] = p
	return p, nil
}
