package index

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	idx := New()
	idx.Put([]byte("foo"), 0)
	idx.Put([]byte{0x00, 0xff}, 1<<40)
	idx.Put([]byte(""), 77)
	idx.Put([]byte("gone"), 5)
	idx.Remove([]byte("gone"))

	data, err := idx.Encode()
	assert.NoError(t, err)
	assert.Equal(t, formatRaw, data[0])

	decoded, err := Decode(data)
	assert.NoError(t, err)

	assert.Equal(t, 3, decoded.Len())
	assertLookup(t, decoded, "foo", 0)
	assertLookup(t, decoded, "\x00\xff", 1<<40)
	assertLookup(t, decoded, "", 77)
	assert.False(t, decoded.Stale())

	_, found := decoded.Lookup([]byte("gone"))
	assert.False(t, found)
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := New().Encode()
	assert.NoError(t, err)
	assert.Equal(t, []byte{formatRaw, 0, 0, 0, 0}, data)

	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
}

func TestSnapshot_Compressed(t *testing.T) {
	idx := New()
	for i := 0; i < 2000; i++ {
		idx.Put([]byte(fmt.Sprintf("key-%05d", i)), uint64(i*32))
	}

	data, err := idx.Encode()
	assert.NoError(t, err)
	assert.Equal(t, formatZstd, data[0])

	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, 2000, decoded.Len())

	for i := 0; i < 2000; i++ {
		assertLookup(t, decoded, fmt.Sprintf("key-%05d", i), uint64(i*32))
	}
}

func TestSnapshot_Malformed(t *testing.T) {
	idx := New()
	idx.Put([]byte("foo"), 12)
	data, err := idx.Encode()
	assert.NoError(t, err)

	cases := map[string][]byte{
		"empty":          nil,
		"unknown format": {9, 0, 0, 0, 0},
		"short count":    {formatRaw, 1},
		"short entry":    data[:len(data)-3],
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(payload)
			assert.True(t, errors.Is(err, ErrBadSnapshot), "got %v", err)
		})
	}
}
