// Package filelocktest provides a deterministic, in-memory fake of
// filelock.Manager/filelock.FileLock for unit-testing the lock state
// machine and coordinator without real inter-process IPC or a filesystem.
// It intentionally does not try to emulate gofrs/flock's semantics; it
// just records calls and lets tests script contention explicitly, which
// is what the spec's literal scenarios (see SPEC_FULL.md §8) need.
package filelocktest

import (
	"sync"

	"github.com/fenwick/cachecoord/pkg/filelock"
)

// Call records one Manager.Lock invocation.
type Call struct {
	LockFile    string
	Mode        filelock.Mode
	DisplayName string
}

// Manager is a fake filelock.Manager for tests.
type Manager struct {
	mu sync.Mutex

	// LockErr, when non-nil, is returned by the next Lock call (and then
	// cleared).
	LockErr error

	calls  []Call
	closes int
	locks  []*Lock
}

var _ filelock.Manager = (*Manager)(nil)

// NewManager constructs an empty fake manager.
func NewManager() *Manager {
	return &Manager{}
}

// Calls returns a snapshot of recorded Lock calls.
func (m *Manager) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CloseCount returns how many times any Lock issued by this manager was
// closed.
func (m *Manager) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Lock implements filelock.Manager.
func (m *Manager) Lock(lockFile string, mode filelock.Mode, displayName string) (filelock.FileLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LockErr != nil {
		err := m.LockErr
		m.LockErr = nil
		return nil, err
	}

	m.calls = append(m.calls, Call{LockFile: lockFile, Mode: mode, DisplayName: displayName})
	l := &Lock{manager: m, mode: mode, lockFile: lockFile}
	m.locks = append(m.locks, l)
	return l, nil
}

// AllowContention implements filelock.Manager.
func (m *Manager) AllowContention(lock filelock.FileLock, onContended func()) {
	l, ok := lock.(*Lock)
	if !ok {
		return
	}
	l.mu.Lock()
	l.onContended = onContended
	l.mu.Unlock()
}

// FireContention invokes the most recently registered contention callback,
// if any, simulating an asynchronous notification from a peer process.
func (m *Manager) FireContention() {
	m.mu.Lock()
	var target *Lock
	for i := len(m.locks) - 1; i >= 0; i-- {
		if m.locks[i].onContendedSet() {
			target = m.locks[i]
			break
		}
	}
	m.mu.Unlock()

	if target != nil {
		target.fireContention()
	}
}

func (m *Manager) recordClose() {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
}

// Lock is the fake filelock.FileLock returned by Manager.Lock.
type Lock struct {
	manager  *Manager
	mode     filelock.Mode
	lockFile string

	mu          sync.Mutex
	onContended func()
	closed      bool

	// WriteFileErr, when non-nil, is returned by the next WriteFile call
	// (and then cleared) instead of running fn.
	WriteFileErr error
}

var _ filelock.FileLock = (*Lock)(nil)

// Mode implements filelock.FileLock.
func (l *Lock) Mode() filelock.Mode { return l.mode }

// WriteFile implements filelock.FileLock.
func (l *Lock) WriteFile(fn func() error) error {
	l.mu.Lock()
	if l.WriteFileErr != nil {
		err := l.WriteFileErr
		l.WriteFileErr = nil
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()
	return fn()
}

// ReadFile implements filelock.FileLock.
func (l *Lock) ReadFile(fn func() error) error {
	return fn()
}

// Close implements filelock.FileLock.
func (l *Lock) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.manager.recordClose()
	return nil
}

func (l *Lock) onContendedSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onContended != nil
}

func (l *Lock) fireContention() {
	l.mu.Lock()
	cb := l.onContended
	l.mu.Unlock()
	if cb != nil {
		cb()
	}
}
