// Package filelock serializes writers of the local data files across
// cyberdeck processes (a dashboard in --watch mode and an editing command,
// for example).
package filelock

import (
	"fmt"
	"os"
)

const lockFileMode = 0o600

// Suffix is appended to a data file path to form its lock file path.
const Suffix = ".lock"

// Lock acquires an exclusive advisory lock on the file at path, creating it
// if needed. Other callers block until the returned unlock func runs.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock path derived from the data dir
	if err != nil {
		return nil, err
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// With runs fn while holding the lock that guards target.
func With(target string, fn func() error) error {
	unlock, err := Lock(target + Suffix)
	if err != nil {
		return fmt.Errorf("locking %s: %w", target, err)
	}
	fnErr := fn()
	if err := unlock(); err != nil && fnErr == nil {
		return fmt.Errorf("unlocking %s: %w", target, err)
	}
	return fnErr
}
