package logfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nbroyles/akv/internal/storage"
)

// LastOffsetOf walks the record headers from the start of the log and returns the
// offset of the last record written under key. Payloads of other keys are skipped
// without being read or verified, which makes it much cheaper than a scan. The
// record it points at has not been checked either; read it with ReadAt.
//
// The walk ends quietly at a torn record, like a scan does
func (l *LogFile) LastOffsetOf(key []byte) (offset uint64, found bool, err error) {
	reader := bufio.NewReader(io.NewSectionReader(l.file, 0, math.MaxInt64))
	candidate := make([]byte, len(key))

	var next uint64
	for {
		header, err := l.codec.DecodeHeader(reader)
		if errors.Is(err, storage.ErrEndOfLog) {
			return offset, found, nil
		} else if err != nil {
			return 0, false, fmt.Errorf("failed to read record header at offset %d: %w", next, err)
		}

		skip := header.PayloadSize()
		match := false
		if int(header.KeyLen) == len(key) {
			if _, err := io.ReadFull(reader, candidate); err != nil {
				return skipEnd(offset, found, err)
			}
			match = bytes.Equal(candidate, key)
			skip = int64(header.ValueLen)
		}

		// a torn record never counts as a match
		if err := discard(reader, skip); err != nil {
			return skipEnd(offset, found, err)
		}

		if match {
			offset, found = next, true
		}

		next += storage.HeaderSize + uint64(header.PayloadSize())
	}
}

func discard(reader *bufio.Reader, n int64) error {
	for n > 0 {
		step := n
		if step > math.MaxInt32 {
			step = math.MaxInt32
		}
		skipped, err := reader.Discard(int(step))
		if err != nil {
			return err
		}
		n -= int64(skipped)
	}
	return nil
}

// skipEnd treats running out of data in the middle of a record as the end of the log
func skipEnd(offset uint64, found bool, err error) (uint64, bool, error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return offset, found, nil
	}
	return 0, false, fmt.Errorf("failed skipping through log: %w", err)
}
