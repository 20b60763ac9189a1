package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfLog is returned when the reader ends before a full record could be
	// read. Both a clean end of file and a torn final record produce it
	ErrEndOfLog = errors.New("end of log")

	// ErrCorrupt is matched by every CorruptionError
	ErrCorrupt = errors.New("data corruption encountered")
)

// CorruptionError is returned when a fully read record fails checksum
// verification. Offset is -1 when the position of the record is not known
type CorruptionError struct {
	Offset   int64
	Expected uint32
	Actual   uint32
}

func (e *CorruptionError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("data corruption encountered (%08x != %08x)", e.Actual, e.Expected)
	}
	return fmt.Sprintf("data corruption encountered at offset %d (%08x != %08x)",
		e.Offset, e.Actual, e.Expected)
}

func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupt
}
