package filelock

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/internal/logger"
	"github.com/fenwick/cachecoord/internal/perf"
)

const (
	defaultMaxRetries   = 50
	defaultRetryDelay   = 20 * time.Millisecond
	defaultPollInterval = 50 * time.Millisecond
)

// FlockManager is the reference Manager implementation, backed by
// github.com/gofrs/flock. Lock acquisition retries with a bounded budget
// rather than blocking forever (see DESIGN.md: this is a deliberate
// redesign relative to an unbounded-block manager).
//
// Because flock has no built-in "a peer wants this lock" notification,
// contention is detected with a best-effort side channel: a contender that
// fails its first TryLock/TryRLock pings a sibling "<lockFile>.waiters"
// file, and the holder's background poller notices the ping and fires the
// registered callback. This is the default realization of the spec's
// observable contention contract; production callers with a real IPC
// mechanism can supply their own Manager.
type FlockManager struct {
	maxRetries   int
	retryDelay   time.Duration
	pollInterval time.Duration

	mu        sync.Mutex
	allowPoll bool // disabled at construction on platforms where the
	// best-effort side channel is known to be unreliable.
}

// Option configures a FlockManager.
type Option func(*FlockManager)

// WithRetryBudget overrides the default bounded-retry parameters.
func WithRetryBudget(maxRetries int, retryDelay time.Duration) Option {
	return func(m *FlockManager) {
		m.maxRetries = maxRetries
		m.retryDelay = retryDelay
	}
}

// WithPollInterval overrides how often the contention watcher polls the
// waiters side-channel file.
func WithPollInterval(d time.Duration) Option {
	return func(m *FlockManager) { m.pollInterval = d }
}

// NewManager constructs a FlockManager with sane defaults.
func NewManager(opts ...Option) *FlockManager {
	defer perf.Track(nil, "filelock.NewManager")()

	m := &FlockManager{
		maxRetries:   defaultMaxRetries,
		retryDelay:   defaultRetryDelay,
		pollInterval: defaultPollInterval,
		allowPoll:    runtime.GOOS != "windows",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lock implements Manager.
func (m *FlockManager) Lock(lockFile string, mode Mode, displayName string) (FileLock, error) {
	defer perf.Track(nil, "filelock.FlockManager.Lock")()

	if mode == ModeNone {
		return &managedLock{mode: ModeNone, lockFile: lockFile}, nil
	}

	lockPath := lockFile + ".lock"
	fl := flock.New(lockPath)

	var locked bool
	var err error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if mode == ModeExclusive {
			locked, err = fl.TryLock()
		} else {
			locked, err = fl.TryRLock()
		}
		if err != nil {
			return nil, cacheerrors.Build(cacheerrors.ErrLockAcquire).
				WithCause(err).
				WithContext("path", lockPath).
				WithContext("mode", mode.String()).
				Err()
		}
		if locked {
			break
		}
		m.pingWaiters(lockFile)
		time.Sleep(m.retryDelay)
	}

	if !locked {
		return nil, cacheerrors.Build(cacheerrors.ErrLockTimeout).
			WithContext("path", lockPath).
			WithContext("mode", mode.String()).
			WithContext("display_name", displayName).
			Err()
	}

	return &managedLock{
		flock:    fl,
		mode:     mode,
		lockFile: lockFile,
		manager:  m,
	}, nil
}

// AllowContention implements Manager.
func (m *FlockManager) AllowContention(lock FileLock, onContended func()) {
	defer perf.Track(nil, "filelock.FlockManager.AllowContention")()

	ml, ok := lock.(*managedLock)
	if !ok || ml.mode == ModeNone {
		return
	}
	if !m.allowPoll {
		logger.Debug("contention watcher disabled on this platform", "path", ml.lockFile)
		return
	}
	ml.startContentionWatch(m.pollInterval, onContended)
}

// pingWaiters bumps the waiters side-channel file so a current holder's
// poller notices a contender is present. Best-effort: errors are logged,
// never propagated, since failure to signal contention must not block the
// contender's own retry loop.
func (m *FlockManager) pingWaiters(lockFile string) {
	path := lockFile + ".waiters"
	if err := os.WriteFile(path, []byte(time.Now().UTC().Format(time.RFC3339Nano)), 0o644); err != nil {
		logger.Trace("failed to ping lock waiters file", "error", err, "path", path)
	}
}
