package test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbroyles/akv/internal/storage"
	"github.com/stretchr/testify/assert"
)

// KV is a key/value pair as written to the log
type KV struct {
	Key   string
	Value string
}

// LogPath returns the path of a fresh log file inside a test temp directory.
// The file is not created
func LogPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "store.akv")
}

// WriteRecords appends the encoded entries to the file at path and returns the
// offset at which each of them starts
func WriteRecords(t *testing.T, path string, entries ...KV) []uint64 {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	assert.NoError(t, err)
	defer file.Close()

	info, err := file.Stat()
	assert.NoError(t, err)
	offset := uint64(info.Size())

	codec := storage.Codec{}
	offsets := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		data := codec.Encode(storage.NewRecord([]byte(entry.Key), []byte(entry.Value)))
		_, err := file.Write(data)
		assert.NoError(t, err)

		offsets = append(offsets, offset)
		offset += uint64(len(data))
	}

	return offsets
}

// AssertLog decodes the file at path from the start and checks that it holds
// exactly entries, in order
func AssertLog(t *testing.T, path string, entries ...KV) {
	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	reader := bytes.NewReader(data)
	codec := storage.Codec{}
	for i, entry := range entries {
		rec, err := codec.DecodeFrom(reader)
		if !assert.NoError(t, err, "record %d", i) {
			return
		}

		assert.Equal(t, entry.Key, string(rec.Key))
		assert.Equal(t, entry.Value, string(rec.Value))
	}

	_, err = codec.DecodeFrom(reader)
	assert.Equal(t, storage.ErrEndOfLog, err, "log has more records than expected")
}

// Truncate cuts n bytes off the end of the file at path
func Truncate(t *testing.T, path string, n int64) {
	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, os.Truncate(path, info.Size()-n))
}

// FlipBit inverts a single bit of the byte at offset in the file at path
func FlipBit(t *testing.T, path string, offset int64, bit uint) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	assert.NoError(t, err)
	defer file.Close()

	b := make([]byte, 1)
	_, err = file.ReadAt(b, offset)
	assert.NoError(t, err)

	b[0] ^= 1 << bit
	_, err = file.WriteAt(b, offset)
	assert.NoError(t, err)
}

// FileExists reports whether a file exists at path
func FileExists(t *testing.T, path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	} else if err == nil {
		return true
	}

	assert.FailNow(t, "failed attempting to check if "+path+" exists")

	return false
}
