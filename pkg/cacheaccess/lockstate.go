package cacheaccess

import (
	"context"
	"sync"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/internal/logger"
	"github.com/fenwick/cachecoord/internal/perf"
	"github.com/fenwick/cachecoord/pkg/filelock"
	"github.com/fenwick/cachecoord/pkg/initializer"
	"github.com/fenwick/cachecoord/pkg/metrics"
)

// lifecycleState is the coordinator's coarse-grained state; everything
// else (current lock, owner, depth, contention) is tracked as orthogonal
// attributes on LockStateMachine.
type lifecycleState int

const (
	stateClosed lifecycleState = iota
	stateOpen
)

// ownerToken identifies the goroutine call-tree currently permitted to
// perform file access and to reenter UseCache frames. Go has no stable
// thread-identity API, so ownership is represented as a token minted per
// UseCache call-tree and threaded through context.Context rather than a
// Thread object.
type ownerToken struct{}

// longRunningSave captures ownership state relinquished by
// EnterLongRunning, to be restored by ExitLongRunning.
type longRunningSave struct {
	tok   *ownerToken
	depth int
}

// LockStateMachine is the heart of the coordinator: it tracks the
// lifecycle state, the held file lock (if any), the owner goroutine, and
// reentrancy depth, all serialized by a single mutex with a condition
// variable for goroutines waiting to become owner.
type LockStateMachine struct {
	manager     filelock.Manager
	lockFile    string
	mode        filelock.Mode
	displayName string
	init        initializer.Action
	metrics     metrics.Metrics

	mu   sync.Mutex
	cond *sync.Cond

	state             lifecycleState
	currentLock       filelock.FileLock
	owner             *ownerToken
	depth             int
	contentionPending bool
}

// NewLockStateMachine constructs a LockStateMachine. init and m may be
// nil; nil init means the backing store is assumed pre-initialized, and
// nil m disables instrumentation.
func NewLockStateMachine(manager filelock.Manager, lockFile string, mode filelock.Mode, displayName string, init initializer.Action, m metrics.Metrics) *LockStateMachine {
	if init == nil {
		init = initializer.Noop{}
	}
	if m == nil {
		m = metrics.Noop{}
	}
	lsm := &LockStateMachine{
		manager:     manager,
		lockFile:    lockFile,
		mode:        mode,
		displayName: displayName,
		init:        init,
		metrics:     m,
	}
	lsm.cond = sync.NewCond(&lsm.mu)
	return lsm
}

// Mode returns the coordinator's configured lock mode.
func (m *LockStateMachine) Mode() filelock.Mode {
	return m.mode
}

// Open acquires the configured lock (unless mode is None) and runs the
// initialization handshake. Open may be called at most once between
// construction (or the last Close) and the next Close.
func (m *LockStateMachine) Open() error {
	defer perf.Track(nil, "cacheaccess.LockStateMachine.Open")()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateOpen {
		return cacheerrors.ErrAlreadyOpen
	}

	if m.mode != filelock.ModeNone {
		if err := m.acquireLocked(m.mode); err != nil {
			return err
		}
	}
	m.state = stateOpen
	return nil
}

// Close releases any held lock and transitions to Closed. Close is
// idempotent and never fails when no lock is held.
func (m *LockStateMachine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateOpen {
		return nil
	}
	m.closeLockLocked()
	m.state = stateClosed
	m.owner = nil
	m.depth = 0
	m.contentionPending = false
	m.cond.Broadcast()
	return nil
}

// TokenFromContext extracts the ownership token threaded through ctx by a
// prior EnterUseCache call on this machine, if any.
func (m *LockStateMachine) TokenFromContext(ctx context.Context) (*ownerToken, bool) {
	tok, ok := ctx.Value(m).(*ownerToken)
	return tok, ok
}

// EnterUseCache implements the enter-use-cache transition: reentrant on
// the owner goroutine (via the token threaded through ctx), otherwise
// blocks until no goroutine owns, then acquires the lock if not already
// held and establishes ownership. It returns a context carrying the
// (possibly newly minted) ownership token, which the caller's action must
// use for nested UseCache calls to be recognized as reentrant.
func (m *LockStateMachine) EnterUseCache(ctx context.Context) (context.Context, *ownerToken, error) {
	defer perf.Track(ctx, "cacheaccess.LockStateMachine.EnterUseCache")()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateOpen {
		return ctx, nil, cacheerrors.ErrNotOpen
	}
	if m.mode == filelock.ModeShared {
		return ctx, nil, cacheerrors.ErrSharedModeDoesNotSupportWrite
	}

	if tok, ok := m.TokenFromContext(ctx); ok && m.owner == tok {
		m.depth++
		return ctx, tok, nil
	}

	for m.owner != nil {
		m.cond.Wait()
	}

	if m.currentLock == nil {
		if err := m.acquireLocked(filelock.ModeExclusive); err != nil {
			return ctx, nil, err
		}
	}

	tok := &ownerToken{}
	m.owner = tok
	m.depth = 1
	return context.WithValue(ctx, m, tok), tok, nil
}

// ExitUseCache implements the exit-use-cache transition: decrements
// reentrancy depth and clears ownership at depth zero. The lock is released
// here only if a contention signal arrived while the frame was owned;
// otherwise it remains held until Close or a later contention event.
func (m *LockStateMachine) ExitUseCache(tok *ownerToken) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok == nil || m.owner != tok {
		return
	}
	m.depth--
	if m.depth == 0 {
		m.owner = nil
		if m.contentionPending {
			m.closeLockLocked()
			m.contentionPending = false
		}
		m.cond.Broadcast()
	}
}

// EnterLongRunning implements the enter-long-running transition. Called
// with the token from the enclosing UseCache frame (nil if there is no
// enclosing frame, in which case it is a no-op). If a contention signal
// is already pending, the lock is closed now rather than at the next
// release point.
func (m *LockStateMachine) EnterLongRunning(tok *ownerToken) *longRunningSave {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok == nil || m.owner != tok {
		return nil
	}

	save := &longRunningSave{tok: tok, depth: m.depth}
	m.owner = nil
	m.depth = 0
	m.cond.Broadcast()

	if m.contentionPending {
		m.closeLockLocked()
		m.contentionPending = false
	}
	return save
}

// ExitLongRunning implements the exit-long-running transition: reacquires
// the lock if contention closed it while ownership was relinquished
// (whether that happened at entry or asynchronously during the action),
// waits for ownership to be free, and restores the saved owner and depth.
// A nil save (no enclosing frame) is a no-op.
func (m *LockStateMachine) ExitLongRunning(save *longRunningSave) error {
	if save == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentLock == nil {
		if err := m.acquireLocked(filelock.ModeExclusive); err != nil {
			return err
		}
	}

	for m.owner != nil {
		m.cond.Wait()
	}
	m.owner = save.tok
	m.depth = save.depth
	return nil
}

// onContended implements the whenContended-fired transition. It is
// invoked asynchronously on a manager-owned goroutine; it only mutates
// state after acquiring the machine's own mutex, never while the manager
// holds any lock of its own.
func (m *LockStateMachine) onContended() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateOpen || m.currentLock == nil {
		return
	}
	m.metrics.ContentionObserved()
	if m.owner == nil {
		m.closeLockLocked()
		return
	}
	m.contentionPending = true
}

// acquireLocked acquires mode on m.lockFile, runs the initialization
// handshake, and stores the result as currentLock. Caller must hold m.mu.
func (m *LockStateMachine) acquireLocked(mode filelock.Mode) error {
	lock, err := m.manager.Lock(m.lockFile, mode, m.displayName)
	if err != nil {
		return err
	}
	m.manager.AllowContention(lock, m.onContended)

	lock, err = m.runInitHandshake(lock)
	if err != nil {
		return err
	}

	m.currentLock = lock
	m.metrics.LockAcquired(lock.Mode().String())
	return nil
}

// closeLockLocked releases the held lock, if any. Caller must hold m.mu.
func (m *LockStateMachine) closeLockLocked() {
	if m.currentLock == nil {
		return
	}
	mode := m.currentLock.Mode().String()
	if err := m.currentLock.Close(); err != nil {
		logger.Warn("failed to close file lock", "error", err, "lockFile", m.lockFile)
	}
	m.currentLock = nil
	m.metrics.LockReleased(mode)
}

// runInitHandshake implements the §4.2 initialization handshake. It may
// close and reacquire lock one or more times (Shared → Exclusive →
// Shared), and returns whichever FileLock ends up current. Caller must
// hold m.mu.
func (m *LockStateMachine) runInitHandshake(lock filelock.FileLock) (filelock.FileLock, error) {
	needs, err := m.init.RequiresInitialization(lock)
	if err != nil {
		_ = lock.Close()
		return nil, cacheerrors.Build(cacheerrors.ErrInitialization).WithCause(err).Err()
	}
	if !needs {
		return lock, nil
	}

	if lock.Mode() != filelock.ModeShared {
		if err := lock.WriteFile(func() error { return m.init.Initialize(lock) }); err != nil {
			_ = lock.Close()
			return nil, cacheerrors.Build(cacheerrors.ErrInitialization).WithCause(err).Err()
		}
		return lock, nil
	}

	// Shared mode needs a write: upgrade, initialize, downgrade.
	if err := lock.Close(); err != nil {
		return nil, err
	}

	excl, err := m.manager.Lock(m.lockFile, filelock.ModeExclusive, m.displayName)
	if err != nil {
		return nil, err
	}
	m.manager.AllowContention(excl, m.onContended)

	needs, err = m.init.RequiresInitialization(excl)
	if err != nil {
		_ = excl.Close()
		return nil, cacheerrors.Build(cacheerrors.ErrInitialization).WithCause(err).Err()
	}
	if needs {
		if err := excl.WriteFile(func() error { return m.init.Initialize(excl) }); err != nil {
			_ = excl.Close()
			return nil, cacheerrors.Build(cacheerrors.ErrInitialization).WithCause(err).Err()
		}
	}
	if err := excl.Close(); err != nil {
		return nil, err
	}

	shared, err := m.manager.Lock(m.lockFile, filelock.ModeShared, m.displayName)
	if err != nil {
		return nil, err
	}
	m.manager.AllowContention(shared, m.onContended)

	// Sanity re-check: initialization is expected to be complete now. A
	// true result here does not fail the handshake — it would indicate a
	// concurrent writer outside this coordinator's lock discipline, which
	// is logged but not our problem to resolve.
	if stillNeeds, err := m.init.RequiresInitialization(shared); err == nil && stillNeeds {
		logger.Warn("store still reports needing initialization after handshake", "lockFile", m.lockFile)
	}
	return shared, nil
}

// CurrentLockForOwner returns the held lock iff ctx carries the current
// owner's token, for use by the FileAccess façade.
func (m *LockStateMachine) CurrentLockForOwner(ctx context.Context) (filelock.FileLock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok := m.TokenFromContext(ctx)
	if !ok || m.owner == nil || tok != m.owner {
		return nil, false
	}
	return m.currentLock, true
}
