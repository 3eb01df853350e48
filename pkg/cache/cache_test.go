package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/dupkit/pkg/blockid"
)

func id(block int) blockid.BlockID {
	return blockid.BlockID{Entry: blockid.EntryID{Path: "home/a", Snapshot: 0}, Block: block}
}

func TestWriteThenRead(t *testing.T) {
	c := NewWithShards(2, 1)
	buf := make([]byte, 5)

	n, ok := c.Read(id(0), buf)
	require.False(t, ok)
	require.Equal(t, 0, n)

	n, ok = c.Write(id(0), []byte("pippo"))
	require.True(t, ok)
	require.Equal(t, 5, n)

	n, ok = c.Read(id(0), buf)
	require.True(t, ok)
	require.Equal(t, 5, n)
	require.Equal(t, "pippo", string(buf))
}

func TestWriteIdempotentOnExistingID(t *testing.T) {
	c := NewWithShards(2, 1)
	_, _ = c.Write(id(0), []byte("id0"))
	n, ok := c.Write(id(0), []byte("other"))
	require.False(t, ok)
	require.Equal(t, 0, n)

	buf := make([]byte, 3)
	_, _ = c.Read(id(0), buf)
	require.Equal(t, "id0", string(buf))
}

// S4 — LRU basic.
func TestLRUBasic(t *testing.T) {
	c := NewWithShards(2, 1)
	_, ok := c.Write(id(0), []byte("id0"))
	require.True(t, ok)
	_, ok = c.Write(id(1), []byte("id1"))
	require.True(t, ok)

	buf := make([]byte, 3)
	n, ok := c.Read(id(0), buf)
	require.True(t, ok)
	require.Equal(t, 3, n)
	require.Equal(t, "id0", string(buf))

	n, ok = c.Read(id(1), buf)
	require.True(t, ok)
	require.Equal(t, "id1", string(buf))
}

// S5 — LRU eviction.
func TestLRUEviction(t *testing.T) {
	c := NewWithShards(2, 1)
	_, _ = c.Write(id(0), []byte("id0"))
	_, _ = c.Write(id(1), []byte("id1"))
	_, _ = c.Write(id(2), []byte("id2"))

	buf := make([]byte, 3)
	_, ok := c.Read(id(0), buf)
	require.False(t, ok)

	_, ok = c.Read(id(1), buf)
	require.True(t, ok)
	require.Equal(t, "id1", string(buf))

	_, ok = c.Read(id(2), buf)
	require.True(t, ok)
	require.Equal(t, "id2", string(buf))
}

// S6 — LRU recency via read.
func TestLRURecencyViaRead(t *testing.T) {
	c := NewWithShards(2, 1)
	_, _ = c.Write(id(0), []byte("id0"))
	_, _ = c.Write(id(1), []byte("id1"))

	buf := make([]byte, 3)
	_, ok := c.Read(id(0), buf)
	require.True(t, ok)

	_, _ = c.Write(id(2), []byte("id2"))

	_, ok = c.Read(id(1), buf)
	require.False(t, ok)

	_, ok = c.Read(id(0), buf)
	require.True(t, ok)
	_, ok = c.Read(id(2), buf)
	require.True(t, ok)
}

func TestZeroCapacityIsAlwaysMiss(t *testing.T) {
	c := NewWithShards(0, 1)
	_, ok := c.Write(id(0), []byte("x"))
	require.False(t, ok)

	buf := make([]byte, 1)
	_, ok = c.Read(id(0), buf)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c := NewWithShards(2, 1)
	_, _ = c.Write(id(0), []byte("id0"))
	require.Equal(t, 1, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())

	buf := make([]byte, 3)
	_, ok := c.Read(id(0), buf)
	require.False(t, ok)
}

func TestWriteTruncatesOversizedBlock(t *testing.T) {
	c := NewWithShards(1, 1)
	big := make([]byte, 70000)
	for i := range big {
		big[i] = byte(i)
	}
	n, ok := c.Write(id(0), big)
	require.True(t, ok)
	require.Equal(t, 64*1024, n)
}

func TestMultiShardCapacitySumsExactly(t *testing.T) {
	c := NewWithShards(5, 4)
	total := 0
	for _, s := range c.shards {
		total += s.capacity
	}
	require.Equal(t, 5, total)
}
