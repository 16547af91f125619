package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run already holds the lock.
var ErrLocked = errors.New("another imdb-rank run holds the lock")

// RunLock guards an output path against two runs writing it at once.
type RunLock struct {
	path string
	lock *flock.Flock
}

// LockFor returns the lock that guards target. The lock file lives next to it.
func LockFor(target string) *RunLock {
	path := target + ".lock"
	return &RunLock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("lock: create dir: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock: acquire %q: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

// Release unlocks. The lock file is left in place; removing it would let a
// waiting run lock a different inode.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("lock: release %q: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}
