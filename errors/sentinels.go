package errors

import "github.com/cockroachdb/errors"

// Coordinator lifecycle and access-control sentinels. Callers should use
// errors.Is (stdlib or cockroachdb/errors — both interoperate) against these.
var (
	// ErrAlreadyOpen is returned by Open when the coordinator is already
	// open (Open was called and Close has not been called since).
	ErrAlreadyOpen = errors.New("cache access coordinator: already open")

	// ErrSharedModeDoesNotSupportWrite is returned by UseCache when the
	// coordinator was configured with LockMode Shared.
	ErrSharedModeDoesNotSupportWrite = errors.New("cache access coordinator: shared mode does not permit cache operations")

	// ErrInvalidCacheReuse is returned by NewCache when an existing cache
	// entry for the same name has incompatible parameters.
	ErrInvalidCacheReuse = errors.New("cache access coordinator: incompatible parameters for existing cache")

	// ErrFileAccessRequiresLock is returned by FileAccess operations when
	// invoked off the owner goroutine, or when no lock is currently held.
	ErrFileAccessRequiresLock = errors.New("cache access coordinator: file access requires the acquired lock")

	// ErrLockAcquire wraps failures raised by the underlying FileLockManager.
	ErrLockAcquire = errors.New("cache access coordinator: failed to acquire file lock")

	// ErrLockTimeout indicates the bounded retry loop in the reference
	// FileLockManager exhausted its attempts without acquiring the lock.
	ErrLockTimeout = errors.New("cache access coordinator: timed out waiting for file lock")

	// ErrInitialization wraps failures raised by an InitializationAction
	// during the open/lock-upgrade handshake.
	ErrInitialization = errors.New("cache access coordinator: initialization failed")

	// ErrManifestLoad wraps failures parsing a cache-registry manifest.
	ErrManifestLoad = errors.New("cache access coordinator: failed to load cache manifest")

	// ErrNotOpen is returned when an operation that requires an open
	// coordinator is invoked before Open or after Close.
	ErrNotOpen = errors.New("cache access coordinator: coordinator is not open")

	// ErrCacheDirUnavailable is returned when the default XDG-resolved cache
	// directory cannot be created.
	ErrCacheDirUnavailable = errors.New("cache access coordinator: cache directory unavailable")
)
