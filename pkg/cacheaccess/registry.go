package cacheaccess

import (
	"path/filepath"
	"reflect"
	"sync"

	"github.com/google/uuid"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/internal/perf"
	"github.com/fenwick/cachecoord/pkg/indexedcache"
	"github.com/fenwick/cachecoord/pkg/metrics"
)

// registryEntry is the type-erased record the registry keeps per cache
// name; GetOrBuild recovers the concrete K, V at each call site via the
// type parameters the caller supplies.
type registryEntry struct {
	keyType         reflect.Type
	valueType       reflect.Type
	keySerializer   any // raw caller-supplied Serializer[K], or nil
	valueSerializer any // raw caller-supplied Serializer[V], or nil
	decorator       any // raw caller-supplied CacheDecorator[K, V], or nil
	built           any // the MultiProcessSafeCache[K, V] facade
}

// CacheRegistry maps cache name to a lazily constructed
// MultiProcessSafeCache, with compatibility checking across repeated
// NewCache calls for the same name. Construction never acquires the
// coordinator's file lock.
type CacheRegistry struct {
	dir     string
	metrics metrics.Metrics

	crossProcess CrossProcessCacheAccess
	asyncAccess  AsyncCacheAccess

	mu      sync.Mutex
	entries map[string]registryEntry
}

// NewCacheRegistry constructs an empty registry. Cache data files are
// created under dir.
func NewCacheRegistry(dir string, m metrics.Metrics) *CacheRegistry {
	if m == nil {
		m = metrics.Noop{}
	}
	return &CacheRegistry{
		dir:     dir,
		metrics: m,
		entries: make(map[string]registryEntry),
	}
}

// GetOrBuild returns the existing cache for params.Name if its parameters
// are compatible, or builds a new one via factory. On incompatible reuse
// it returns ErrInvalidCacheReuse and leaves the registry unchanged.
func GetOrBuild[K comparable, V any](r *CacheRegistry, params CacheParameters[K, V], factory indexedcache.CreateCacheFunc[K, V]) (MultiProcessSafeCache[K, V], error) {
	defer perf.Track(nil, "cacheaccess.GetOrBuild")()
	keyType := reflect.TypeOf((*K)(nil)).Elem()
	valueType := reflect.TypeOf((*V)(nil)).Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[params.Name]; ok {
		facade, compatErr := checkCompatible[K, V](existing, keyType, valueType, params)
		if compatErr != nil {
			return nil, compatErr
		}
		return facade, nil
	}

	keySer := params.KeySerializer
	if keySer == nil {
		keySer = defaultSerializer[K]()
	}
	valSer := params.ValueSerializer
	if valSer == nil {
		valSer = defaultSerializer[V]()
	}

	file := filepath.Join(r.dir, params.Name+".cache")
	backing, err := factory(file, keySer, valSer)
	if err != nil {
		return nil, cacheerrors.Build(cacheerrors.ErrInitialization).
			WithCause(err).
			WithContext("cache", params.Name).
			Err()
	}

	var finalCache indexedcache.IndexedCache[K, V] = backing
	if params.Decorator != nil {
		finalCache, err = params.Decorator.Decorate(uuid.New(), params.Name, backing, r.crossProcess, r.asyncAccess)
		if err != nil {
			return nil, err
		}
	}

	facade := &cacheFacade[K, V]{inner: finalCache}
	r.entries[params.Name] = registryEntry{
		keyType:         keyType,
		valueType:       valueType,
		keySerializer:   params.KeySerializer,
		valueSerializer: params.ValueSerializer,
		decorator:       params.Decorator,
		built:           facade,
	}
	r.metrics.CacheBuilt(params.Name)
	return facade, nil
}

// checkCompatible verifies that params matches the registered entry and,
// if so, returns its built facade. Otherwise returns ErrInvalidCacheReuse.
func checkCompatible[K comparable, V any](existing registryEntry, keyType, valueType reflect.Type, params CacheParameters[K, V]) (MultiProcessSafeCache[K, V], error) {
	if existing.keyType != keyType || existing.valueType != valueType {
		return nil, cacheerrors.ErrInvalidCacheReuse
	}

	var existingKeySer indexedcache.Serializer[K]
	if existing.keySerializer != nil {
		existingKeySer, _ = existing.keySerializer.(indexedcache.Serializer[K])
	}
	if !serializerCompatible[K](existingKeySer, params.KeySerializer) {
		return nil, cacheerrors.ErrInvalidCacheReuse
	}

	var existingValSer indexedcache.Serializer[V]
	if existing.valueSerializer != nil {
		existingValSer, _ = existing.valueSerializer.(indexedcache.Serializer[V])
	}
	if !serializerCompatible[V](existingValSer, params.ValueSerializer) {
		return nil, cacheerrors.ErrInvalidCacheReuse
	}

	var existingDecorator CacheDecorator[K, V]
	if existing.decorator != nil {
		existingDecorator, _ = existing.decorator.(CacheDecorator[K, V])
	}
	if !decoratorCompatible[K, V](existingDecorator, params.Decorator) {
		return nil, cacheerrors.ErrInvalidCacheReuse
	}

	facade, ok := existing.built.(MultiProcessSafeCache[K, V])
	if !ok {
		return nil, cacheerrors.ErrInvalidCacheReuse
	}
	return facade, nil
}

// serializerCompatible implements the §3 serializer-compatibility rule:
// equal, or one side omitted in favor of the declared type's default.
func serializerCompatible[T any](existing, incoming indexedcache.Serializer[T]) bool {
	if existing == nil && incoming == nil {
		return true
	}
	if existing != nil && incoming != nil {
		return reflect.TypeOf(existing) == reflect.TypeOf(incoming)
	}
	supplied := existing
	if supplied == nil {
		supplied = incoming
	}
	return reflect.TypeOf(supplied) == reflect.TypeOf(defaultSerializer[T]())
}

// decoratorCompatible implements the §3 decorator-compatibility rule:
// both absent, or identity-equal.
func decoratorCompatible[K comparable, V any](existing, incoming CacheDecorator[K, V]) bool {
	if existing == nil && incoming == nil {
		return true
	}
	if existing == nil || incoming == nil {
		return false
	}
	ev := reflect.ValueOf(existing)
	iv := reflect.ValueOf(incoming)
	if !ev.Comparable() || !iv.Comparable() {
		return false
	}
	return existing == incoming
}

// defaultSerializer returns the built-in Serializer for T: StringSerializer
// for string, Int64Serializer for int64, and a generic gob-based fallback
// otherwise.
func defaultSerializer[T any]() indexedcache.Serializer[T] {
	var zero T
	switch any(zero).(type) {
	case string:
		return any(indexedcache.StringSerializer{}).(indexedcache.Serializer[T])
	case int64:
		return any(indexedcache.Int64Serializer{}).(indexedcache.Serializer[T])
	default:
		return indexedcache.GobSerializer[T]{}
	}
}

// cacheFacade adapts an indexedcache.IndexedCache to MultiProcessSafeCache.
type cacheFacade[K comparable, V any] struct {
	inner indexedcache.IndexedCache[K, V]
}

var _ MultiProcessSafeCache[string, string] = (*cacheFacade[string, string])(nil)

func (f *cacheFacade[K, V]) Get(key K) (V, bool, error) { return f.inner.Get(key) }
func (f *cacheFacade[K, V]) Put(key K, value V) error   { return f.inner.Put(key, value) }
func (f *cacheFacade[K, V]) Remove(key K) error         { return f.inner.Remove(key) }
func (f *cacheFacade[K, V]) Keys() ([]K, error)         { return f.inner.Keys() }
func (f *cacheFacade[K, V]) Close() error               { return f.inner.Close() }
