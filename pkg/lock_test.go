package pkg

import (
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/nbroyles/akv/internal/test"
	"github.com/stretchr/testify/assert"
)

func TestLocking(t *testing.T) {
	store := openStore(t)
	lockPath := store.Path() + lockSuffix

	// assert lock doesn't already exist
	assert.False(t, test.FileExists(t, lockPath))

	assert.NoError(t, store.Lock())
	assert.True(t, test.FileExists(t, lockPath))

	// we already own it
	assert.NoError(t, store.Lock())

	assert.NoError(t, store.Unlock())
	assert.False(t, test.FileExists(t, lockPath))
}

func TestFailIfLocked(t *testing.T) {
	store := openStore(t)

	// Set up existing lock file
	lockFile, err := os.OpenFile(store.Path()+lockSuffix, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	assert.NoError(t, err)

	_, err = lockFile.WriteString(strconv.Itoa(os.Getpid() + 1))
	assert.NoError(t, err)
	assert.NoError(t, lockFile.Close())

	err = store.Lock()
	assert.EqualError(t, err, fmt.Sprintf("cannot lock store. already locked by another process (%d)",
		os.Getpid()+1))
}
