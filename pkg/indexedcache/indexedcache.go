// Package indexedcache defines the typed key/value store contract consumed
// by the cache access coordinator, plus a reference implementation backed
// by an in-memory LRU working set over a durable gob snapshot file.
//
// This is deliberately not a B-tree or any other production-grade embedded
// store format; see DESIGN.md for why. Construction is never responsible
// for lock acquisition — a coordinator always owns the file lock before
// any IndexedCache method runs.
package indexedcache

// IndexedCache is a typed key→value store backed by one file. It is not
// itself safe across processes: the coordinator that owns it holds the
// file lock for the duration of any call.
type IndexedCache[K comparable, V any] interface {
	// Get returns the value for key and a boolean flag indicating presence.
	Get(key K) (V, bool, error)

	// Put inserts or updates key→value.
	Put(key K, value V) error

	// Remove deletes key if present.
	Remove(key K) error

	// Keys returns a snapshot of all resident keys. Order is unspecified.
	Keys() ([]K, error)

	// Close flushes any pending state to durable storage and releases
	// in-memory resources. Close does not release the file lock; that
	// remains the coordinator's responsibility.
	Close() error
}

// Serializer converts values of type T to and from bytes for durable
// storage. Implementations must round-trip: Deserialize(Serialize(v)) == v.
type Serializer[T any] interface {
	Serialize(v T) ([]byte, error)
	Deserialize(b []byte) (T, error)
}

// CreateCacheFunc builds the backing IndexedCache for a newly registered
// cache. file is an absolute path the implementation owns exclusively;
// keySerializer and valueSerializer capture the cache's declared key/value
// types.
type CreateCacheFunc[K comparable, V any] func(file string, keySerializer Serializer[K], valueSerializer Serializer[V]) (IndexedCache[K, V], error)
