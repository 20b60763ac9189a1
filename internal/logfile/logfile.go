package logfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/nbroyles/akv/internal/storage"
	"github.com/nbroyles/akv/internal/util"
)

// ErrNoRecord is returned by ReadAt when the offset does not point at a
// complete record, i.e. it is at or past the logical end of the log
var ErrNoRecord = errors.New("no record at offset")

// LogFile is the append-only file backing the store. Records are laid out
// back to back with no header. Every operation positions itself explicitly:
// appends seek to the end of the file right before writing and reads go through
// a positioned reader, so no cursor state is carried between calls.
//
// LogFile is not safe for concurrent use.
type LogFile struct {
	path  string
	codec storage.Codec
	file  *os.File

	// end is the logical end of the log set by SetEnd, or -1 when appends go to
	// the physical end of the file
	end int64
}

// Open opens the log at path for reading and writing, creating it if needed
func Open(path string) (*LogFile, error) {
	file, err := util.OpenOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	return &LogFile{path: path, file: file, end: -1}, nil
}

// Append writes a record for key and value to the end of the log and returns
// the offset at which the record begins
func (l *LogFile) Append(key []byte, value []byte) (uint64, error) {
	data := l.codec.Encode(storage.NewRecord(key, value))

	if err := l.trimTail(); err != nil {
		return 0, err
	}

	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed seeking to end of log: %w", err)
	}

	if n, err := l.file.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write record to log: %w", err)
	} else if n != len(data) {
		return 0, fmt.Errorf("failed to write entirety of record to log, bytes written=%d, expected=%d",
			n, len(data))
	}

	return uint64(offset), nil
}

// SetEnd records offset as the end of the last complete record in the log.
// Bytes past it can only be a torn record; they are cut off before the next
// append so that the new record does not land behind them
func (l *LogFile) SetEnd(offset uint64) {
	if offset > math.MaxInt64 {
		return
	}
	l.end = int64(offset)
}

// ReadAt decodes the record starting at offset
func (l *LogFile) ReadAt(offset uint64) (*storage.Record, error) {
	record, err := l.codec.DecodeFrom(l.readerAt(offset))
	if err != nil {
		return nil, annotate(err, offset)
	}

	return record, nil
}

// ScanFrom returns a Scanner positioned at offset
func (l *LogFile) ScanFrom(offset uint64) *Scanner {
	return &Scanner{
		reader: l.readerAt(offset),
		codec:  &l.codec,
		next:   offset,
	}
}

// Sync commits the contents of the log to stable storage
func (l *LogFile) Sync() error {
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed syncing log to disk: %w", err)
	}
	return nil
}

// Size returns the physical size of the log in bytes, which includes any torn
// record at the tail
func (l *LogFile) Size() (uint64, error) {
	info, err := l.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat log file: %w", err)
	}
	return uint64(info.Size()), nil
}

func (l *LogFile) Path() string {
	return l.path
}

func (l *LogFile) Close() error {
	return l.file.Close()
}

func (l *LogFile) trimTail() error {
	if l.end < 0 {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	if info.Size() > l.end {
		if err := l.file.Truncate(l.end); err != nil {
			return fmt.Errorf("failed cutting torn record at offset %d: %w", l.end, err)
		}
	}

	l.end = -1
	return nil
}

// readerAt returns a reader over the log starting at offset. Offsets that don't
// fit in a file position read as an empty log
func (l *LogFile) readerAt(offset uint64) io.Reader {
	if offset > math.MaxInt64 {
		return bytes.NewReader(nil)
	}
	return bufio.NewReader(io.NewSectionReader(l.file, int64(offset), math.MaxInt64-int64(offset)))
}

func annotate(err error, offset uint64) error {
	var corruption *storage.CorruptionError
	switch {
	case errors.Is(err, storage.ErrEndOfLog):
		return fmt.Errorf("%w %d", ErrNoRecord, offset)
	case errors.As(err, &corruption):
		corruption.Offset = int64(offset)
		return corruption
	default:
		return fmt.Errorf("failed to read record at offset %d: %w", offset, err)
	}
}
