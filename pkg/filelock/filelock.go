// Package filelock defines the inter-process file-lock contract consumed by
// the cache access coordinator (FileLock, FileLockManager) and ships a
// reference implementation backed by github.com/gofrs/flock.
//
// Designing the low-level inter-process locking protocol itself is out of
// scope for this module; we consume flock's observable advisory-lock
// contract and layer a bounded-retry acquire loop and a best-effort
// contention-notification mechanism on top of it.
package filelock

import "fmt"

// Mode is the granularity of a held or requested file lock.
type Mode int

const (
	// ModeNone means no lock is requested/held.
	ModeNone Mode = iota
	// ModeShared permits concurrent readers across processes.
	ModeShared
	// ModeExclusive permits exactly one writer across processes.
	ModeExclusive
)

// String implements fmt.Stringer for log/error messages.
func (m Mode) String() string {
	switch m {
	case ModeShared:
		return "Shared"
	case ModeExclusive:
		return "Exclusive"
	default:
		return "None"
	}
}

// FileLock is a handle to an inter-process lock on one file.
type FileLock interface {
	// Mode returns the granularity this lock was acquired with.
	Mode() Mode

	// WriteFile runs fn in a crash-safe write region. The lock must already
	// be held in ModeExclusive; WriteFile marks the region dirty before
	// running fn and clears the marker only if fn returns nil, so a crash
	// mid-fn leaves a durable signal an InitializationAction can observe.
	WriteFile(fn func() error) error

	// ReadFile runs fn while the lock is held, with no additional
	// crash-safety bookkeeping (reads do not need it).
	ReadFile(fn func() error) error

	// Close releases the lock. Close is idempotent.
	Close() error
}

// Manager acquires FileLocks and lets callers register contention callbacks.
type Manager interface {
	// Lock blocks (with a bounded retry loop; see ErrLockTimeout) until a
	// lock in the given mode is acquired on lockFile, or the retry budget
	// is exhausted.
	Lock(lockFile string, mode Mode, displayName string) (FileLock, error)

	// AllowContention registers onContended to be invoked asynchronously,
	// on a manager-owned goroutine, when another process wants lock.
	// May be called more than once per FileLock; a later call replaces the
	// earlier callback.
	AllowContention(lock FileLock, onContended func())
}

// ErrNotExclusive is returned by WriteFile when called on a lock that was
// not acquired in ModeExclusive.
var ErrNotExclusive = fmt.Errorf("filelock: WriteFile requires a lock acquired in ModeExclusive")
