package filelock

import (
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/internal/logger"
	"github.com/fenwick/cachecoord/internal/perf"
)

// managedLock is the FlockManager's FileLock implementation.
type managedLock struct {
	flock    *flock.Flock
	mode     Mode
	lockFile string
	manager  *FlockManager

	watchMu   sync.Mutex
	watchStop chan struct{}
	watchDone chan struct{}
}

var _ FileLock = (*managedLock)(nil)

// Mode implements FileLock.
func (l *managedLock) Mode() Mode {
	return l.mode
}

// WriteFile implements FileLock.
func (l *managedLock) WriteFile(fn func() error) error {
	defer perf.Track(nil, "filelock.managedLock.WriteFile")()

	if l.mode != ModeExclusive {
		return ErrNotExclusive
	}

	dirtyPath := l.lockFile + ".dirty"
	if err := os.WriteFile(dirtyPath, []byte{1}, 0o644); err != nil {
		return cacheerrors.Build(cacheerrors.ErrLockAcquire).
			WithCause(err).
			WithContext("path", dirtyPath).
			Err()
	}

	if err := fn(); err != nil {
		return err
	}

	if err := os.Remove(dirtyPath); err != nil && !os.IsNotExist(err) {
		logger.Trace("failed to clear dirty marker after write", "error", err, "path", dirtyPath)
	}
	return nil
}

// ReadFile implements FileLock.
func (l *managedLock) ReadFile(fn func() error) error {
	defer perf.Track(nil, "filelock.managedLock.ReadFile")()
	return fn()
}

// Close implements FileLock.
func (l *managedLock) Close() error {
	defer perf.Track(nil, "filelock.managedLock.Close")()

	l.stopContentionWatch()

	if l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return cacheerrors.Build(cacheerrors.ErrLockAcquire).
			WithCause(err).
			WithContext("path", l.lockFile+".lock").
			Err()
	}
	return nil
}

// startContentionWatch launches a background poller that watches the
// waiters side-channel file for changes and invokes onContended when a
// change is observed. Only one watcher runs per lock at a time.
func (l *managedLock) startContentionWatch(pollInterval time.Duration, onContended func()) {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()

	l.stopContentionWatchLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	l.watchStop = stop
	l.watchDone = done

	waitersPath := l.lockFile + ".waiters"

	// A waiters file left over from before the watch started is not a
	// change; only later modifications fire onContended.
	var lastSeen time.Time
	if info, err := os.Stat(waitersPath); err == nil {
		lastSeen = info.ModTime()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				info, err := os.Stat(waitersPath)
				if err != nil {
					continue
				}
				if info.ModTime().After(lastSeen) {
					lastSeen = info.ModTime()
					onContended()
				}
			}
		}
	}()
}

func (l *managedLock) stopContentionWatch() {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	l.stopContentionWatchLocked()
}

func (l *managedLock) stopContentionWatchLocked() {
	if l.watchStop == nil {
		return
	}
	close(l.watchStop)
	<-l.watchDone
	l.watchStop = nil
	l.watchDone = nil
}
