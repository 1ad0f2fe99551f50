package pipeline

import (
	"fmt"

	"github.com/gofrs/flock"

	perrors "github.com/prophyle/prophex-match/internal/errors"
)

// ReferenceLock is an advisory cross-process lock on a reference FASTA.
// It guards the index artifacts against a second run on the same reference.
type ReferenceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewReferenceLock creates a lock for fa. The lock file is <fa>.lock.
func NewReferenceLock(fa string) *ReferenceLock {
	path := fa + ".lock"
	return &ReferenceLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock without blocking.
// A lock held by another process fails with ERR_203_LOCK_HELD.
func (l *ReferenceLock) Acquire() error {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return perrors.New(perrors.ErrCodeLockHeld, fmt.Sprintf("failed to lock %s", l.path), err)
	}
	if !acquired {
		return perrors.New(perrors.ErrCodeLockHeld, "another run is using this reference", nil).
			WithDetail("lock", l.path).
			WithSuggestion("Wait for the other run to finish or remove the stale lock file")
	}
	l.locked = true
	return nil
}

// Release unlocks. Safe to call on an unlocked or released lock.
func (l *ReferenceLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *ReferenceLock) Path() string {
	return l.path
}
