package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ErrBadSnapshot is returned when a snapshot payload cannot be decoded
var ErrBadSnapshot = errors.New("malformed index snapshot")

const (
	formatRaw  byte = 0
	formatZstd byte = 1

	// snapshots at least this large are compressed
	compressThreshold = 4 << 10
)

// Snapshot format:
// - format byte (0 raw, 1 zstd compressed body)
// - body, little endian:
//   - entry count (uint32 == 4 bytes)
//   - per entry, in ascending key order:
//     - key length (uint32 == 4 bytes)
//     - key
//     - offset (uint64 == 8 bytes)

// Encode serializes the index into a snapshot payload
func (i *Index) Encode() ([]byte, error) {
	body := bytes.Buffer{}

	scratch := make([]byte, 8)
	binary.LittleEndian.PutUint32(scratch, uint32(i.Len()))
	body.Write(scratch[:4])

	i.Each(func(key []byte, offset uint64) {
		binary.LittleEndian.PutUint32(scratch, uint32(len(key)))
		body.Write(scratch[:4])
		body.Write(key)
		binary.LittleEndian.PutUint64(scratch, offset)
		body.Write(scratch)
	})

	if body.Len() < compressThreshold {
		return append([]byte{formatRaw}, body.Bytes()...), nil
	}

	out := bytes.Buffer{}
	out.WriteByte(formatZstd)

	w, err := zstd.NewWriter(&out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot compressor: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	return out.Bytes(), nil
}

// Decode builds a usable index from a snapshot payload produced by Encode
func Decode(data []byte) (*Index, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrBadSnapshot)
	}

	var body io.Reader
	switch data[0] {
	case formatRaw:
		body = bytes.NewReader(data[1:])
	case formatZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data[1:]))
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot decompressor: %w", err)
		}
		defer zr.Close()
		body = zr
	default:
		return nil, fmt.Errorf("%w: unknown format %d", ErrBadSnapshot, data[0])
	}

	var count uint32
	if err := binary.Read(body, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: failed to read entry count: %v", ErrBadSnapshot, err)
	}

	idx := New()
	for n := uint32(0); n < count; n++ {
		var keyLen uint32
		if err := binary.Read(body, binary.LittleEndian, &keyLen); err != nil {
			return nil, fmt.Errorf("%w: failed to read key length of entry %d: %v", ErrBadSnapshot, n, err)
		}

		key := bytes.Buffer{}
		if _, err := io.CopyN(&key, body, int64(keyLen)); err != nil {
			return nil, fmt.Errorf("%w: failed to read key of entry %d: %v", ErrBadSnapshot, n, err)
		}

		var offset uint64
		if err := binary.Read(body, binary.LittleEndian, &offset); err != nil {
			return nil, fmt.Errorf("%w: failed to read offset of entry %d: %v", ErrBadSnapshot, n, err)
		}

		idx.entries.Put(key.Bytes(), offset)
	}

	return idx, nil
}
