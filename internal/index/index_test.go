package index

import (
	"errors"
	"testing"

	"github.com/nbroyles/akv/internal/storage"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	offset uint64
	key    string
}

// staticSource replays a fixed list of records and then reports err
type staticSource struct {
	entries []entry
	pointer int
	err     error
}

func (s *staticSource) Next() bool {
	if s.pointer >= len(s.entries) {
		return false
	}
	s.pointer++
	return true
}

func (s *staticSource) Offset() uint64 {
	return s.entries[s.pointer-1].offset
}

func (s *staticSource) Record() *storage.Record {
	return storage.NewRecord([]byte(s.entries[s.pointer-1].key), []byte("v"))
}

func (s *staticSource) Err() error {
	return s.err
}

var _ Source = &staticSource{}

func TestIndex_RebuildFrom(t *testing.T) {
	idx := New()
	idx.Put([]byte("stale"), 999)

	err := idx.RebuildFrom(&staticSource{entries: []entry{
		{offset: 0, key: "a"},
		{offset: 14, key: "b"},
		{offset: 28, key: "a"},
	}})
	assert.NoError(t, err)

	assertLookup(t, idx, "a", 28)
	assertLookup(t, idx, "b", 14)

	_, found := idx.Lookup([]byte("stale"))
	assert.False(t, found)
	assert.Equal(t, 2, idx.Len())
	assert.False(t, idx.Stale())
}

func TestIndex_RebuildFromFailure(t *testing.T) {
	idx := New()
	failure := errors.New("scan failed")

	err := idx.RebuildFrom(&staticSource{entries: []entry{{offset: 0, key: "a"}}, err: failure})
	assert.Equal(t, failure, err)
	assert.True(t, idx.Stale())
}

func TestIndex_PutRemove(t *testing.T) {
	idx := New()

	_, found := idx.Lookup([]byte("foo"))
	assert.False(t, found)

	idx.Put([]byte("foo"), 10)
	assertLookup(t, idx, "foo", 10)

	idx.Put([]byte("foo"), 20)
	assertLookup(t, idx, "foo", 20)

	assert.True(t, idx.Remove([]byte("foo")))
	assert.False(t, idx.Remove([]byte("foo")))

	_, found = idx.Lookup([]byte("foo"))
	assert.False(t, found)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_PutCopiesKey(t *testing.T) {
	idx := New()

	key := []byte("foo")
	idx.Put(key, 10)
	key[0] = 'b'

	assertLookup(t, idx, "foo", 10)
	_, found := idx.Lookup([]byte("boo"))
	assert.False(t, found)
}

func TestIndex_Invalidate(t *testing.T) {
	idx := New()
	idx.Put([]byte("foo"), 10)
	assert.False(t, idx.Stale())

	idx.Invalidate()
	assert.True(t, idx.Stale())
	assert.Equal(t, 0, idx.Len())

	assert.NoError(t, idx.RebuildFrom(&staticSource{entries: []entry{{offset: 5, key: "foo"}}}))
	assert.False(t, idx.Stale())
	assertLookup(t, idx, "foo", 5)
}

func TestIndex_Each(t *testing.T) {
	idx := New()
	idx.Put([]byte("c"), 3)
	idx.Put([]byte("a"), 1)
	idx.Put([]byte("b"), 2)
	idx.Remove([]byte("b"))

	var keys []string
	var offsets []uint64
	idx.Each(func(key []byte, offset uint64) {
		keys = append(keys, string(key))
		offsets = append(offsets, offset)
	})

	assert.Equal(t, []string{"a", "c"}, keys)
	assert.Equal(t, []uint64{1, 3}, offsets)
}

func assertLookup(t *testing.T, idx *Index, key string, offset uint64) {
	actual, found := idx.Lookup([]byte(key))

	assert.True(t, found, "expected %q in index", key)
	assert.Equal(t, offset, actual)
}
