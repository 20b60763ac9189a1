package pkg

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

const lockSuffix = ".lock"

// Lock marks the store as owned by the current process by creating a lock file
// next to the log that holds our pid. Locking a store the current process already
// owns succeeds. The store itself never locks; drivers that may run concurrently
// against the same file should
func (s *Store) Lock() error {
	return lock(s.lockPath())
}

// Unlock removes the lock file created by Lock
func (s *Store) Unlock() error {
	if err := os.Remove(s.lockPath()); err != nil {
		return fmt.Errorf("failed removing lock file: %w", err)
	}
	return nil
}

func (s *Store) lockPath() string {
	return s.Path() + lockSuffix
}

func lock(lockPath string) error {
	pid := os.Getpid()

	lock, err := os.Open(lockPath)
	// Store is not currently locked, attempt to acquire
	if os.IsNotExist(err) {
		lockFile, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if os.IsExist(err) {
			return fmt.Errorf("cannot lock store. already locked by another process")
		} else if err != nil {
			return fmt.Errorf("failure attempting to lock store: %w", err)
		}
		defer lockFile.Close()

		pidBytes := []byte(strconv.Itoa(pid))
		if n, err := lockFile.Write(pidBytes); err != nil {
			return fmt.Errorf("failure writing owner pid to lock file: %w", err)
		} else if n < len(pidBytes) {
			return fmt.Errorf("failure writing owner pid to lock file. wrote %d bytes, expected %d",
				n, len(pidBytes))
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("failure attempting to lock store: %w", err)
	}
	defer lock.Close()

	// Store currently locked, see if it's me
	scanner := bufio.NewScanner(lock)
	scanner.Scan()
	lockPid, err := strconv.Atoi(scanner.Text())
	if err != nil {
		return fmt.Errorf("failed attempting to read lockfile: %w", err)
	}

	if lockPid != pid {
		return fmt.Errorf("cannot lock store. already locked by another process (%d)", lockPid)
	}
	return nil
}
