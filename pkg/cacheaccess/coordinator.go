package cacheaccess

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fenwick/cachecoord/internal/logger"
	"github.com/fenwick/cachecoord/internal/perf"
	"github.com/fenwick/cachecoord/pkg/filelock"
	"github.com/fenwick/cachecoord/pkg/indexedcache"
	"github.com/fenwick/cachecoord/pkg/initializer"
	"github.com/fenwick/cachecoord/pkg/metrics"
)

// CacheAccessCoordinator is the top-level façade: it owns the lock state
// machine, the cache registry, and the FileAccess façade, and is the only
// type most callers need to import from this package.
type CacheAccessCoordinator struct {
	machine    *LockStateMachine
	registry   *CacheRegistry
	fileAccess *FileAccess
	metrics    metrics.Metrics
}

type config struct {
	manager     filelock.Manager
	lockFile    string
	displayName string
	mode        filelock.Mode
	init        initializer.Action
	metrics     metrics.Metrics
	cacheDir    string
}

// Option configures a CacheAccessCoordinator at construction.
type Option func(*config)

// WithInitializationAction supplies the InitializationAction run during
// the open/lock-upgrade handshake. Defaults to initializer.Noop{}.
func WithInitializationAction(a initializer.Action) Option {
	return func(c *config) { c.init = a }
}

// WithMetrics supplies an observability sink. Defaults to metrics.Noop{}.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithCacheDir overrides the directory cache data files are stored under.
// Defaults to the lock file's directory.
func WithCacheDir(dir string) Option {
	return func(c *config) { c.cacheDir = dir }
}

// New constructs a CacheAccessCoordinator. lockFile is the path the
// FileLockManager derives its lock (and waiters side-channel) from;
// displayName is a human-readable identifier used in lock diagnostics.
func New(manager filelock.Manager, lockFile, displayName string, mode filelock.Mode, opts ...Option) *CacheAccessCoordinator {
	cfg := config{
		manager:     manager,
		lockFile:    lockFile,
		displayName: displayName,
		mode:        mode,
		init:        initializer.Noop{},
		metrics:     metrics.Noop{},
		cacheDir:    filepath.Dir(lockFile),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	machine := NewLockStateMachine(cfg.manager, cfg.lockFile, cfg.mode, cfg.displayName, cfg.init, cfg.metrics)
	registry := NewCacheRegistry(cfg.cacheDir, cfg.metrics)

	coordinator := &CacheAccessCoordinator{
		machine:    machine,
		registry:   registry,
		fileAccess: newFileAccess(machine),
		metrics:    cfg.metrics,
	}

	// Break the cyclic reference between the coordinator and decorated
	// caches: decorators receive thin capability views, not a back-pointer
	// to the coordinator itself.
	registry.crossProcess = &crossProcessView{coordinator: coordinator}
	registry.asyncAccess = &asyncView{coordinator: coordinator}

	return coordinator
}

// Open acquires the configured lock (unless mode is None), running the
// initialization handshake. Fails with ErrAlreadyOpen on a second call.
func (c *CacheAccessCoordinator) Open() error {
	return c.machine.Open()
}

// Close releases any held lock and marks the coordinator closed. Safe to
// call even if Open was never called, or was never able to acquire a lock.
func (c *CacheAccessCoordinator) Close() error {
	return c.machine.Close()
}

// UseCache runs action under coordinator ownership, acquiring the
// Exclusive lock if not already held. Reentrant on the owner goroutine
// when action (or something it calls) threads the returned context into a
// nested UseCache call.
func (c *CacheAccessCoordinator) UseCache(ctx context.Context, description string, action func(ctx context.Context) (any, error)) (any, error) {
	defer perf.Track(ctx, "cacheaccess.CacheAccessCoordinator.UseCache")()
	ownedCtx, tok, err := c.machine.EnterUseCache(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	logger.Debug("entering use-cache frame", "description", description)

	result, actionErr := action(ownedCtx)

	c.machine.ExitUseCache(tok)
	c.metrics.UseCacheDuration(time.Since(start))
	return result, actionErr
}

// LongRunningOperation runs action with ownership relinquished for its
// duration, if called inside a UseCache frame (recognized via ctx). At
// the top level, or on reentrant calls, it is a no-op with respect to
// ownership and the lock.
func (c *CacheAccessCoordinator) LongRunningOperation(ctx context.Context, description string, action func(ctx context.Context) (any, error)) (any, error) {
	defer perf.Track(ctx, "cacheaccess.CacheAccessCoordinator.LongRunningOperation")()
	tok, _ := c.machine.TokenFromContext(ctx)
	save := c.machine.EnterLongRunning(tok)

	logger.Debug("entering long-running operation", "description", description)
	result, actionErr := action(ctx)

	if reacquireErr := c.machine.ExitLongRunning(save); reacquireErr != nil {
		if actionErr != nil {
			return result, actionErr
		}
		return result, reacquireErr
	}
	return result, actionErr
}

// NewCache returns the existing cache registered under params.Name if its
// parameters are compatible, building it on first use via factory.
// Construction never itself acquires the coordinator's lock.
func NewCache[K comparable, V any](c *CacheAccessCoordinator, params CacheParameters[K, V], factory indexedcache.CreateCacheFunc[K, V]) (MultiProcessSafeCache[K, V], error) {
	return GetOrBuild[K, V](c.registry, params, factory)
}

// FileAccess returns the façade for delegating raw file operations to the
// currently held lock.
func (c *CacheAccessCoordinator) FileAccess() *FileAccess {
	return c.fileAccess
}

// WhenContended returns the handler the FileLockManager should invoke
// when a peer process wants the lock. Idempotent and safe for concurrent
// invocation.
func (c *CacheAccessCoordinator) WhenContended() func() {
	return c.machine.onContended
}

// crossProcessView is the CrossProcessCacheAccess view handed to
// decorators; it holds a reference to the coordinator but decorators
// holding a reference to the view cannot reach back into the registry.
type crossProcessView struct {
	coordinator *CacheAccessCoordinator
}

// WithFileLock implements CrossProcessCacheAccess.
func (v *crossProcessView) WithFileLock(ctx context.Context, action func() (any, error)) (any, error) {
	var result any
	err := v.coordinator.fileAccess.WriteFile(ctx, func() error {
		r, actionErr := action()
		result = r
		return actionErr
	})
	return result, err
}

// asyncView is the AsyncCacheAccess view handed to decorators.
type asyncView struct {
	coordinator *CacheAccessCoordinator
}

// LongRunningOperation implements AsyncCacheAccess.
func (v *asyncView) LongRunningOperation(ctx context.Context, description string, action func(ctx context.Context) (any, error)) (any, error) {
	return v.coordinator.LongRunningOperation(ctx, description, action)
}
