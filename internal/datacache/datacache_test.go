package datacache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/internal/datacache"
	"github.com/branpk/wafel-sub001/internal/datapath"
	"github.com/branpk/wafel-sub001/internal/datatype"
)

func TestGetMissThenHit(t *testing.T) {
	c, err := datacache.New(1<<20, 64)
	require.NoError(t, err)

	p := &datapath.DataPath{Source: "a"}
	_, ok := c.Get(5, p)
	assert.False(t, ok)

	c.Put(5, p, datatype.NewInt(42))
	v, ok := c.Get(5, p)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int64())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestDistinctPathIdentitySameSourceNotConfused(t *testing.T) {
	c, err := datacache.New(1<<20, 64)
	require.NoError(t, err)

	p1 := &datapath.DataPath{Source: "same"}
	p2 := &datapath.DataPath{Source: "same"}

	c.Put(1, p1, datatype.NewInt(1))
	_, ok := c.Get(1, p2)
	assert.False(t, ok, "distinct *DataPath identities must not alias in the cache")
}

func TestInvalidateDropsAtOrAfterFrame(t *testing.T) {
	c, err := datacache.New(1<<20, 64)
	require.NoError(t, err)

	p := &datapath.DataPath{Source: "a"}
	c.Put(10, p, datatype.NewInt(1))
	c.Put(20, p, datatype.NewInt(2))

	c.Invalidate(20)

	_, ok := c.Get(10, p)
	assert.True(t, ok)
	_, ok = c.Get(20, p)
	assert.False(t, ok)
}

func TestByteBudgetEvictsLeastRecentlyUsed(t *testing.T) {
	// Budget big enough for ~2 small int entries, forcing eviction on the
	// third.
	c, err := datacache.New(100, 64)
	require.NoError(t, err)

	p1 := &datapath.DataPath{Source: "p1"}
	p2 := &datapath.DataPath{Source: "p2"}
	p3 := &datapath.DataPath{Source: "p3"}

	c.Put(0, p1, datatype.NewInt(1))
	c.Put(0, p2, datatype.NewInt(2))
	// touch p1 so it's more recently used than p2
	_, _ = c.Get(0, p1)
	c.Put(0, p3, datatype.NewInt(3))

	_, ok2 := c.Get(0, p2)
	assert.False(t, ok2, "least recently used entry should have been evicted")

	_, ok1 := c.Get(0, p1)
	assert.True(t, ok1)
	_, ok3 := c.Get(0, p3)
	assert.True(t, ok3)
}
