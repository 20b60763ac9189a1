package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Responsible for encoding and decoding records sent to and retrieved
// from disk
type Codec struct{}

// Encoding record format (all integers little endian):
// - checksum of key ++ value (uint32 == 4 bytes)
// - key length (uint32 == 4 bytes)
// - value length (uint32 == 4 bytes)
// - key
// - value

// Header is the fixed size prefix of every record
type Header struct {
	Checksum uint32
	KeyLen   uint32
	ValueLen uint32
}

// PayloadSize is the number of key and value bytes following the header
func (h Header) PayloadSize() int64 {
	return int64(h.KeyLen) + int64(h.ValueLen)
}

// Encode returns the on disk representation of record
func (c *Codec) Encode(record *Record) []byte {
	key := record.Key
	value := record.Value

	buf := make([]byte, HeaderSize+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], ChecksumKV(key, value))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(value)))
	copy(buf[HeaderSize:], key)
	copy(buf[HeaderSize+len(key):], value)

	return buf
}

// DecodeFrom reads exactly one record from reader. If the reader runs out of data
// before a complete record is read, ErrEndOfLog is returned. A record whose
// checksum does not match its payload results in a *CorruptionError
func (c *Codec) DecodeFrom(reader io.Reader) (*Record, error) {
	header, err := c.DecodeHeader(reader)
	if err != nil {
		return nil, err
	}

	data, err := readPayload(reader, header.PayloadSize())
	if err != nil {
		return nil, endOfLog(err, "failed to read record payload")
	}

	actualChecksum := Checksum(data)
	if actualChecksum != header.Checksum {
		return nil, &CorruptionError{Offset: -1, Expected: header.Checksum, Actual: actualChecksum}
	}

	return &Record{
		Key:   data[:header.KeyLen:header.KeyLen],
		Value: data[header.KeyLen:],
	}, nil
}

// DecodeHeader reads only the header of the next record. Nothing is verified, the
// checksum covers the payload that follows
func (c *Codec) DecodeHeader(reader io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return Header{}, endOfLog(err, "failed to read record header")
	}

	return Header{
		Checksum: binary.LittleEndian.Uint32(buf[0:4]),
		KeyLen:   binary.LittleEndian.Uint32(buf[4:8]),
		ValueLen: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// Decode decodes a single record held entirely in data
func (c *Codec) Decode(data []byte) (*Record, error) {
	return c.DecodeFrom(bytes.NewReader(data))
}

// readPayload reads n bytes. Large payloads grow the buffer as data arrives
// instead of allocating n bytes up front
func readPayload(reader io.Reader, n int64) ([]byte, error) {
	const chunk = 1 << 20
	if n <= chunk {
		data := make([]byte, n)
		_, err := io.ReadFull(reader, data)
		return data, err
	}

	buf := bytes.Buffer{}
	buf.Grow(chunk)
	if _, err := io.CopyN(&buf, reader, n); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func endOfLog(err error, msg string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrEndOfLog
	}
	return fmt.Errorf("%s: %w", msg, err)
}
