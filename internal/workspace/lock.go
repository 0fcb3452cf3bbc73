// Package workspace guards the artifact directories against concurrent runs.
// Batch and single-file processing move files between inbox, processed, and
// errors directories, so two runs sharing a workspace would race on renames
// and ledger rows.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"fatura/internal/config"
)

// ErrLocked indicates another process holds the workspace lock.
var ErrLocked = errors.New("workspace is locked by another process")

// Lock enforces single-run access to a workspace via an advisory file lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// NewLock builds a lock rooted in the configured data directory.
func NewLock(cfg *config.Config) *Lock {
	path := filepath.Join(cfg.Paths.DataDir, "fatura.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking. ErrLocked is returned when another
// run already holds it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("prepare lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrLocked, l.path)
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
