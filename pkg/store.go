package pkg

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nbroyles/akv/internal/index"
	"github.com/nbroyles/akv/internal/logfile"
	"github.com/nbroyles/akv/internal/storage"
)

var (
	// ErrIndexStale is returned by index backed lookups after the index has been
	// snapshotted into the log and before it has been loaded again
	ErrIndexStale = errors.New("index is stale, call Load before looking up keys")

	// ErrNotSnapshot is returned by LoadSnapshot when the record at the given
	// offset was not written under the snapshot key
	ErrNotSnapshot = errors.New("record is not an index snapshot")
)

// ErrCorrupt is matched by errors caused by a record failing checksum verification
var ErrCorrupt = storage.ErrCorrupt

// ErrNoRecord is returned by GetAt when the offset does not point at a complete record
var ErrNoRecord = logfile.ErrNoRecord

// Store is a single file, append-only key value store. Every write appends a record
// to the log and an in-memory index maps each key to its latest record.
//
// The index is empty after Open; call Load to rebuild it from the log. A Store is
// meant to be owned by a single goroutine and must not be used concurrently.
type Store struct {
	log   *logfile.LogFile
	index *index.Index
	opts  options
}

// Open opens the store backed by the log file at path, creating it if it doesn't
// exist. The log is not read until Load is called
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l, err := logfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening store %s: %w", path, err)
	}

	return &Store{log: l, index: index.New(), opts: o}, nil
}

// Load rebuilds the index by replaying the whole log. A torn record at the end of
// the log is ignored and the next write takes its place. If the log can't be read
// the current index is kept
func (s *Store) Load() error {
	idx := index.New()
	scanner := s.log.ScanFrom(0)
	if err := idx.RebuildFrom(scanner); err != nil {
		return fmt.Errorf("failed to load log: %w", err)
	}

	s.index = idx
	s.log.SetEnd(scanner.End())
	return nil
}

// Get returns the current state of key according to the index
func (s *Store) Get(key []byte) (Lookup, error) {
	if s.index.Stale() {
		return Lookup{}, ErrIndexStale
	}

	offset, found := s.index.Lookup(key)
	if !found {
		return Lookup{State: Absent}, nil
	}

	record, err := s.log.ReadAt(offset)
	if err != nil {
		return Lookup{}, fmt.Errorf("failed reading %q: %w", key, err)
	}

	if record.Tombstone() {
		return Lookup{State: Tombstoned, Value: record.Value, Offset: offset}, nil
	}
	return Lookup{State: Present, Value: record.Value, Offset: offset}, nil
}

// GetAt returns the record that starts at offset. It does not consult the index
func (s *Store) GetAt(offset uint64) (*storage.Record, error) {
	return s.log.ReadAt(offset)
}

// Find scans the entire log for the latest record written under target, without
// using the index. found is false if no record for target exists
func (s *Store) Find(target []byte) (offset uint64, value []byte, found bool, err error) {
	scanner := s.log.ScanFrom(0)
	for scanner.Next() {
		// Keep going until the end of the log, the key may have been overwritten
		if record := scanner.Record(); bytes.Equal(record.Key, target) {
			offset, value, found = scanner.Offset(), record.Value, true
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, nil, false, fmt.Errorf("failed scanning for %q: %w", target, err)
	}
	s.log.SetEnd(scanner.End())

	return offset, value, found, nil
}

// Insert appends a record for key and points the index at it
func (s *Store) Insert(key []byte, value []byte) error {
	offset, err := s.append(key, value)
	if err != nil {
		return err
	}

	s.index.Put(key, offset)
	return nil
}

// Update is the same as Insert. The key doesn't need to exist already
func (s *Store) Update(key []byte, value []byte) error {
	return s.Insert(key, value)
}

// Delete writes a tombstone (a record with an empty value) for key. Nothing is
// removed from the log
func (s *Store) Delete(key []byte) error {
	return s.Insert(key, nil)
}

// Len returns the number of keys in the index, tombstoned keys included
func (s *Store) Len() int {
	return s.index.Len()
}

// Path returns the path of the log file
func (s *Store) Path() string {
	return s.log.Path()
}

// Close closes the log file. The store can't be used afterwards
func (s *Store) Close() error {
	return s.log.Close()
}

func (s *Store) append(key []byte, value []byte) (uint64, error) {
	offset, err := s.log.Append(key, value)
	if err != nil {
		return 0, fmt.Errorf("failed writing %q: %w", key, err)
	}

	if s.opts.syncWrites {
		if err := s.log.Sync(); err != nil {
			return 0, err
		}
	}

	return offset, nil
}
