package pkg

import (
	"bytes"
	"fmt"

	"github.com/nbroyles/akv/internal/index"
)

// SnapshotIndex writes the index into the log as the value of a record stored
// under sentinel and returns the offset of that record. Any entry for sentinel
// is left out of the snapshot.
//
// Afterwards the in-memory index is stale: Get returns ErrIndexStale until Load
// or LoadSnapshot is called
func (s *Store) SnapshotIndex(sentinel []byte) (uint64, error) {
	if s.index.Stale() {
		return 0, ErrIndexStale
	}

	previous, indexed := s.index.Lookup(sentinel)
	s.index.Remove(sentinel)
	// put the previous snapshot back if this one never makes it to the log
	restore := func() {
		if indexed {
			s.index.Put(sentinel, previous)
		}
	}

	data, err := s.index.Encode()
	if err != nil {
		restore()
		return 0, fmt.Errorf("failed encoding index snapshot: %w", err)
	}

	offset, err := s.append(sentinel, data)
	if err != nil {
		restore()
		return 0, err
	}

	s.index.Invalidate()

	return offset, nil
}

// LocateSnapshot returns the offset of the latest record written under sentinel.
// Only record headers and keys are read, so this is much cheaper than Load on a log
// with large values. The snapshot itself is verified by LoadSnapshot
func (s *Store) LocateSnapshot(sentinel []byte) (uint64, bool, error) {
	offset, found, err := s.log.LastOffsetOf(sentinel)
	if err != nil {
		return 0, false, fmt.Errorf("failed locating index snapshot: %w", err)
	}
	return offset, found, nil
}

// LoadSnapshot rebuilds the index from the snapshot record at offset instead of
// replaying the whole log. Records written after the snapshot are replayed on top
// of it
func (s *Store) LoadSnapshot(sentinel []byte, offset uint64) error {
	record, err := s.log.ReadAt(offset)
	if err != nil {
		return fmt.Errorf("failed reading index snapshot: %w", err)
	}

	if !bytes.Equal(record.Key, sentinel) {
		return fmt.Errorf("%w: offset %d holds key %q", ErrNotSnapshot, offset, record.Key)
	}

	idx, err := index.Decode(record.Value)
	if err != nil {
		return fmt.Errorf("failed decoding index snapshot at offset %d: %w", offset, err)
	}

	scanner := s.log.ScanFrom(offset)
	// skip the snapshot record itself
	scanner.Next()
	if err := idx.Apply(scanner); err != nil {
		return fmt.Errorf("failed replaying log after index snapshot: %w", err)
	}

	s.index = idx
	s.log.SetEnd(scanner.End())

	return nil
}
