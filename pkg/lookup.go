package pkg

// State describes what the index knows about a key
type State int8

const (
	Absent     State = iota // no record was ever indexed for the key
	Tombstoned              // the latest record for the key has an empty value
	Present                 // the latest record for the key holds a value
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Tombstoned:
		return "tombstoned"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Lookup is the result of Store.Get
type Lookup struct {
	State  State
	Value  []byte
	Offset uint64 // offset of the record, unset when Absent
}

// Found reports whether a record exists for the key. A tombstone counts as found
// with an empty value
func (l Lookup) Found() bool {
	return l.State != Absent
}

// Deleted reports whether the key's latest record is a tombstone
func (l Lookup) Deleted() bool {
	return l.State == Tombstoned
}
