package storage

// HeaderSize is the fixed prefix of every record on disk:
// checksum (4) + key length (4) + value length (4)
const HeaderSize = 12

// Record is an in-memory representation of a single key/value entry in the log.
// A record with an empty value is a tombstone
type Record struct {
	Key   []byte
	Value []byte
}

func NewRecord(key []byte, value []byte) *Record {
	return &Record{
		Key:   key,
		Value: value,
	}
}

// Size returns the number of bytes the record occupies on disk
func (r *Record) Size() uint64 {
	return HeaderSize + uint64(len(r.Key)) + uint64(len(r.Value))
}

// Tombstone reports whether the record marks its key as deleted
func (r *Record) Tombstone() bool {
	return len(r.Value) == 0
}
