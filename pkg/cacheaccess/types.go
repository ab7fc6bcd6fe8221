package cacheaccess

import (
	"context"

	"github.com/google/uuid"

	"github.com/fenwick/cachecoord/pkg/filelock"
	"github.com/fenwick/cachecoord/pkg/indexedcache"
)

// LockMode is the coordinator's configured lock granularity. It is the
// same type as filelock.Mode; callers normally only see the three
// constants below.
type LockMode = filelock.Mode

const (
	// LockModeNone configures a coordinator that never holds an
	// inter-process lock.
	LockModeNone = filelock.ModeNone
	// LockModeShared configures a read-only coordinator.
	LockModeShared = filelock.ModeShared
	// LockModeExclusive configures a read/write coordinator.
	LockModeExclusive = filelock.ModeExclusive
)

// CacheParameters describes one named cache: how its keys and values are
// serialized for durable storage, and an optional decorator that wraps the
// backing IndexedCache before it is handed to callers.
//
// Two CacheParameters are compatible (see CacheRegistry) iff their name,
// key type, and value type match exactly, their decorators are identity-
// equal (both absent, or the same object), and their serializers are
// either equal or one side is omitted in favor of the declared type's
// default serializer.
type CacheParameters[K comparable, V any] struct {
	Name            string
	KeySerializer   indexedcache.Serializer[K]
	ValueSerializer indexedcache.Serializer[V]
	Decorator       CacheDecorator[K, V]
}

// MultiProcessSafeCache is the facade returned by NewCache. Its methods
// forward to the underlying IndexedCache; callers are expected to invoke
// them only while holding ownership (inside a UseCache frame), per the
// coordinator's shared-resource policy — the facade itself does not
// re-check ownership on every call, to keep the hot path free of an extra
// lock acquisition per operation.
type MultiProcessSafeCache[K comparable, V any] interface {
	Get(key K) (V, bool, error)
	Put(key K, value V) error
	Remove(key K) error
	Keys() ([]K, error)
	Close() error
}

// CacheDecorator wraps a freshly constructed backing IndexedCache before
// it is stored in the registry, e.g. to add change notification or
// cross-process invalidation. cacheID is freshly minted per construction;
// crossProcess and async are thin capability views over the owning
// coordinator, not back-pointers, so decorators cannot form a reference
// cycle with the coordinator that built them.
type CacheDecorator[K comparable, V any] interface {
	Decorate(
		cacheID uuid.UUID,
		cacheName string,
		persistentCache indexedcache.IndexedCache[K, V],
		crossProcess CrossProcessCacheAccess,
		async AsyncCacheAccess,
	) (indexedcache.IndexedCache[K, V], error)
}

// CrossProcessCacheAccess lets a CacheDecorator run a callback under the
// coordinator's held file lock, without holding a reference to the
// coordinator itself.
type CrossProcessCacheAccess interface {
	WithFileLock(ctx context.Context, action func() (any, error)) (any, error)
}

// AsyncCacheAccess lets a CacheDecorator run a long-running operation
// through the coordinator's ownership-relinquishing machinery, without
// holding a reference to the coordinator itself.
type AsyncCacheAccess interface {
	LongRunningOperation(ctx context.Context, description string, action func(ctx context.Context) (any, error)) (any, error)
}
