package index

import (
	"time"

	"github.com/nbroyles/akv/internal/skiplist"
	"github.com/nbroyles/akv/internal/storage"
)

// Source yields (offset, record) pairs in log order. *logfile.Scanner satisfies it
type Source interface {
	Next() bool
	Offset() uint64
	Record() *storage.Record
	Err() error
}

// Index maps each key to the offset of the latest record written for it.
//
// An Index is either usable or stale. It starts out usable and empty. Invalidate
// empties it and marks it stale, which is what happens after the index is written
// into the log as a snapshot; it becomes usable again once rebuilt.
type Index struct {
	entries *skiplist.SkipList
	stale   bool
}

func New() *Index {
	return &Index{entries: skiplist.New(time.Now().UnixNano())}
}

// RebuildFrom discards the current contents and replays src. Later records for a
// key overwrite earlier ones. If src fails the index is left stale
func (i *Index) RebuildFrom(src Source) error {
	i.clear()
	i.stale = true

	if err := i.Apply(src); err != nil {
		return err
	}

	i.stale = false
	return nil
}

// Apply replays src on top of the current contents without clearing them first
func (i *Index) Apply(src Source) error {
	for src.Next() {
		i.Put(src.Record().Key, src.Offset())
	}

	return src.Err()
}

// Lookup returns the offset of the latest record for key
func (i *Index) Lookup(key []byte) (uint64, bool) {
	found, offset := i.entries.Get(key)
	return offset, found
}

// Put points key at offset, replacing any previous entry
func (i *Index) Put(key []byte, offset uint64) {
	i.entries.Put(append([]byte(nil), key...), offset)
}

// Remove drops key from the index. Returns false if it was not present
func (i *Index) Remove(key []byte) bool {
	return i.entries.Delete(key)
}

// Len returns the number of keys in the index
func (i *Index) Len() int {
	return i.entries.Len()
}

// Each calls fn for every key in ascending key order
func (i *Index) Each(fn func(key []byte, offset uint64)) {
	iter := skiplist.NewIterator(i.entries)
	for iter.HasNext() {
		fn(iter.Next())
	}
}

// Invalidate empties the index and marks it stale until the next RebuildFrom
func (i *Index) Invalidate() {
	i.clear()
	i.stale = true
}

// Stale reports whether the index has been invalidated and not rebuilt since
func (i *Index) Stale() bool {
	return i.stale
}

func (i *Index) clear() {
	i.entries = skiplist.New(time.Now().UnixNano())
}
