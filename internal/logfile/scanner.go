package logfile

import (
	"errors"
	"io"

	"github.com/nbroyles/akv/internal/storage"
)

// Scanner walks the log one record at a time. It is single pass; start a new scan
// with LogFile.ScanFrom to read the log again.
//
//	scanner := log.ScanFrom(0)
//	for scanner.Next() {
//		use(scanner.Offset(), scanner.Record())
//	}
//	if err := scanner.Err(); err != nil {
//		...
//	}
//
// The scan ends without error when the log runs out, including when the final
// record is torn.
type Scanner struct {
	reader io.Reader
	codec  *storage.Codec

	record *storage.Record
	offset uint64
	next   uint64

	err  error
	done bool
}

// Next advances to the next record, returning false when the scan is over.
// Check Err to tell a clean end of log from a failure
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}

	record, err := s.codec.DecodeFrom(s.reader)
	if err != nil {
		s.done = true
		s.record = nil
		if !errors.Is(err, storage.ErrEndOfLog) {
			s.err = annotate(err, s.next)
		}
		return false
	}

	s.record = record
	s.offset = s.next
	s.next += record.Size()

	return true
}

// Record returns the record read by the last call to Next
func (s *Scanner) Record() *storage.Record {
	return s.record
}

// Offset returns the offset at which the current record starts
func (s *Scanner) Offset() uint64 {
	return s.offset
}

// End returns the offset just past the last complete record read so far. Once
// Next has returned false without error it is the logical end of the log
func (s *Scanner) End() uint64 {
	return s.next
}

// Err returns the error that stopped the scan, or nil if the scan reached the end
// of the log
func (s *Scanner) Err() error {
	return s.err
}
