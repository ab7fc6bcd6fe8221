package cacheaccess

import (
	"context"

	cacheerrors "github.com/fenwick/cachecoord/errors"
)

// FileAccess delegates file operations to the coordinator's currently
// held lock, but only when invoked on the owner goroutine — recognized by
// ctx carrying the ownership token minted by the enclosing UseCache frame.
// Off-owner calls, and calls made with no lock held, fail with
// ErrFileAccessRequiresLock.
type FileAccess struct {
	machine *LockStateMachine
}

func newFileAccess(m *LockStateMachine) *FileAccess {
	return &FileAccess{machine: m}
}

// WriteFile runs fn in the crash-safe write-under-lock region of the
// currently held lock.
func (f *FileAccess) WriteFile(ctx context.Context, fn func() error) error {
	lock, ok := f.machine.CurrentLockForOwner(ctx)
	if !ok || lock == nil {
		return cacheerrors.ErrFileAccessRequiresLock
	}
	return lock.WriteFile(fn)
}

// UpdateFile is an alias for WriteFile, for callers that think of the
// operation as a read-then-update rather than a pure write; both run
// inside the same crash-safe write region.
func (f *FileAccess) UpdateFile(ctx context.Context, fn func() error) error {
	return f.WriteFile(ctx, fn)
}

// ReadFile runs fn while the currently held lock is held, with no
// additional crash-safety bookkeeping.
func (f *FileAccess) ReadFile(ctx context.Context, fn func() error) error {
	lock, ok := f.machine.CurrentLockForOwner(ctx)
	if !ok || lock == nil {
		return cacheerrors.ErrFileAccessRequiresLock
	}
	return lock.ReadFile(fn)
}
