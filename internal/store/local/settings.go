package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flag reports whether the boolean setting key is stored as "true".
// Settings live beside the data files whatever backend is active.
func Flag(dir, key string) bool {
	data, err := os.ReadFile(filepath.Join(dir, key)) //nolint:gosec // key is a package constant
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "true"
}

// SetFlag stores key as "true", or removes it when v is false.
func SetFlag(dir, key string, v bool) error {
	path := filepath.Join(dir, key)
	if !v {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clearing %s: %w", key, err)
		}
		return nil
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("true"), fileMode)
}
