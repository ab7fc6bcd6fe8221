// Package initializer defines the InitializationAction contract consumed
// by the cache access coordinator during the open/lock-upgrade handshake
// (see SPEC_FULL.md §4.2), plus a couple of small reference adapters.
package initializer

import "github.com/fenwick/cachecoord/pkg/filelock"

// Action decides whether the backing store needs initialization, and
// performs that initialization when asked. Initialize is always called
// while the coordinator holds an Exclusive lock, inside a FileLock.WriteFile
// region, so implementations do not need to worry about concurrent peers.
type Action interface {
	// RequiresInitialization reports whether the store guarded by lock
	// needs to be initialized.
	RequiresInitialization(lock filelock.FileLock) (bool, error)

	// Initialize performs the initialization. Called with lock held in
	// ModeExclusive, inside lock.WriteFile.
	Initialize(lock filelock.FileLock) error
}

// Noop never requires initialization. Useful for coordinators whose
// backing stores are self-describing or already initialized out of band.
type Noop struct{}

var _ Action = Noop{}

// RequiresInitialization always returns false.
func (Noop) RequiresInitialization(filelock.FileLock) (bool, error) { return false, nil }

// Initialize is never called for Noop but is implemented to satisfy Action.
func (Noop) Initialize(filelock.FileLock) error { return nil }

// Func adapts two plain functions into an Action, for callers who do not
// need a dedicated type.
type Func struct {
	RequiresFn   func(lock filelock.FileLock) (bool, error)
	InitializeFn func(lock filelock.FileLock) error
}

var _ Action = Func{}

// RequiresInitialization implements Action.
func (f Func) RequiresInitialization(lock filelock.FileLock) (bool, error) {
	if f.RequiresFn == nil {
		return false, nil
	}
	return f.RequiresFn(lock)
}

// Initialize implements Action.
func (f Func) Initialize(lock filelock.FileLock) error {
	if f.InitializeFn == nil {
		return nil
	}
	return f.InitializeFn(lock)
}
