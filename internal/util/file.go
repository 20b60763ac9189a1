package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// OpenOrCreate opens the file at path for reading and writing, creating it
// (and any missing parent directories) if it does not exist yet
func OpenOrCreate(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	return file, nil
}

// Exists reports whether path exists
func Exists(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failure checking for %s existence: %w", path, err)
	}
	return true, nil
}
