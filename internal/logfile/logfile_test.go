package logfile

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/nbroyles/akv/internal/storage"
	"github.com/nbroyles/akv/internal/test"
	"github.com/stretchr/testify/assert"
)

func TestOpen_CreatesFile(t *testing.T) {
	path := test.LogPath(t)

	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
	assert.Equal(t, path, l.Path())
}

func TestLogFile_Append(t *testing.T) {
	path := test.LogPath(t)
	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	off, err := l.Append([]byte("a"), []byte("1"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), off)

	off, err = l.Append([]byte("b"), []byte("2"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(storage.HeaderSize+2), off)

	off, err = l.Append([]byte("a"), nil)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2*(storage.HeaderSize+2)), off)

	size, err := l.Size()
	assert.NoError(t, err)
	assert.Equal(t, uint64(3*storage.HeaderSize+5), size)

	test.AssertLog(t, path,
		test.KV{Key: "a", Value: "1"},
		test.KV{Key: "b", Value: "2"},
		test.KV{Key: "a", Value: ""},
	)
}

func TestLogFile_AppendToExisting(t *testing.T) {
	path := test.LogPath(t)
	offsets := test.WriteRecords(t, path, test.KV{Key: "foo", Value: "bar"})

	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	off, err := l.Append([]byte("baz"), []byte("qux"))
	assert.NoError(t, err)
	assert.Equal(t, offsets[0]+storage.HeaderSize+6, off)
}

func TestLogFile_ReadAt(t *testing.T) {
	path := test.LogPath(t)
	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	first, err := l.Append([]byte("foo"), []byte("bar"))
	assert.NoError(t, err)
	second, err := l.Append([]byte("oooooh"), []byte("wweeee"))
	assert.NoError(t, err)

	// reads out of order do not depend on any previous position
	rec, err := l.ReadAt(second)
	assert.NoError(t, err)
	assert.Equal(t, []byte("oooooh"), rec.Key)
	assert.Equal(t, []byte("wweeee"), rec.Value)

	rec, err = l.ReadAt(first)
	assert.NoError(t, err)
	assert.Equal(t, []byte("foo"), rec.Key)

	// appending after a read still lands at the end
	third, err := l.Append([]byte("x"), []byte("y"))
	assert.NoError(t, err)
	assert.Equal(t, second+storage.HeaderSize+12, third)
}

func TestLogFile_ReadAtPastEnd(t *testing.T) {
	path := test.LogPath(t)
	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	_, err = l.ReadAt(0)
	assert.True(t, errors.Is(err, ErrNoRecord))

	_, err = l.Append([]byte("foo"), []byte("bar"))
	assert.NoError(t, err)

	_, err = l.ReadAt(1000)
	assert.True(t, errors.Is(err, ErrNoRecord))
	assert.EqualError(t, err, "no record at offset 1000")

	for _, offset := range []uint64{1 << 63, math.MaxUint64} {
		_, err = l.ReadAt(offset)
		assert.True(t, errors.Is(err, ErrNoRecord), "offset %d", offset)

		scanner := l.ScanFrom(offset)
		assert.False(t, scanner.Next())
		assert.NoError(t, scanner.Err())
	}
}

func TestLogFile_AppendAfterTornTail(t *testing.T) {
	path := test.LogPath(t)
	test.WriteRecords(t, path,
		test.KV{Key: "a", Value: "1"},
		test.KV{Key: "c", Value: "a value that gets torn"},
	)
	test.Truncate(t, path, 10)

	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	records, scanner := scanAll(t, l, 0)
	assert.Len(t, records, 1)
	assert.NoError(t, scanner.Err())
	l.SetEnd(scanner.End())

	offset, err := l.Append([]byte("b"), []byte("2"))
	assert.NoError(t, err)
	assert.Equal(t, scanner.End(), offset)

	// only the first append trims, later ones go to the end of the file
	_, err = l.Append([]byte("d"), []byte("4"))
	assert.NoError(t, err)

	test.AssertLog(t, path,
		test.KV{Key: "a", Value: "1"},
		test.KV{Key: "b", Value: "2"},
		test.KV{Key: "d", Value: "4"},
	)
}

func TestLogFile_ReadAtTornRecord(t *testing.T) {
	path := test.LogPath(t)
	offsets := test.WriteRecords(t, path,
		test.KV{Key: "a", Value: "1"},
		test.KV{Key: "b", Value: "a much longer value"},
	)
	test.Truncate(t, path, 5)

	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	_, err = l.ReadAt(offsets[0])
	assert.NoError(t, err)

	_, err = l.ReadAt(offsets[1])
	assert.True(t, errors.Is(err, ErrNoRecord))
}

func TestLogFile_ReadAtCorrupt(t *testing.T) {
	path := test.LogPath(t)
	offsets := test.WriteRecords(t, path,
		test.KV{Key: "a", Value: "1"},
		test.KV{Key: "b", Value: "2"},
	)
	test.FlipBit(t, path, int64(offsets[1])+storage.HeaderSize+1, 3)

	l, err := Open(path)
	assert.NoError(t, err)
	defer l.Close()

	_, err = l.ReadAt(offsets[0])
	assert.NoError(t, err)

	_, err = l.ReadAt(offsets[1])
	assert.True(t, errors.Is(err, storage.ErrCorrupt))

	var corruption *storage.CorruptionError
	assert.True(t, errors.As(err, &corruption))
	assert.Equal(t, int64(offsets[1]), corruption.Offset)
}

func TestLogFile_Sync(t *testing.T) {
	l, err := Open(test.LogPath(t))
	assert.NoError(t, err)
	defer l.Close()

	_, err = l.Append([]byte("foo"), []byte("bar"))
	assert.NoError(t, err)
	assert.NoError(t, l.Sync())
}
