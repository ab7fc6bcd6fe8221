package indexedcache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/renameio/v2"

	"github.com/fenwick/cachecoord/internal/logger"
)

// DefaultCapacity is the default working-set size for a DefaultCache when
// no explicit capacity is supplied.
const DefaultCapacity = 4096

// DefaultCache is the reference IndexedCache implementation: a bounded
// in-memory LRU working set, snapshotted to a single file with
// encoding/gob and persisted atomically via renameio.
//
// Entries evicted from the working set by the LRU policy before the next
// snapshot are lost; this is a deliberate simplification for a reference
// implementation and is not meant to emulate a production embedded store.
type DefaultCache[K comparable, V any] struct {
	file          string
	keySerializer Serializer[K]
	valSerializer Serializer[V]

	mu      sync.RWMutex
	working *lru.Cache[K, V]
	dirty   bool
	closed  bool
}

var _ IndexedCache[string, string] = (*DefaultCache[string, string])(nil)

// entry is the on-disk gob record for one key/value pair.
type entry[K, V any] struct {
	Key   []byte
	Value []byte
}

// New constructs a DefaultCache backed by file, loading any existing
// snapshot. capacity bounds the number of entries held in memory; pass 0
// to use DefaultCapacity.
func New[K comparable, V any](file string, capacity int, keySerializer Serializer[K], valSerializer Serializer[V]) (*DefaultCache[K, V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	working, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("indexedcache: allocate working set: %w", err)
	}

	c := &DefaultCache[K, V]{
		file:          file,
		keySerializer: keySerializer,
		valSerializer: valSerializer,
		working:       working,
	}

	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *DefaultCache[K, V]) load() error {
	data, err := os.ReadFile(c.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("indexedcache: read snapshot %s: %w", c.file, err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []entry[K, V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return fmt.Errorf("indexedcache: decode snapshot %s: %w", c.file, err)
	}

	for _, e := range entries {
		k, err := c.keySerializer.Deserialize(e.Key)
		if err != nil {
			return fmt.Errorf("indexedcache: decode key from %s: %w", c.file, err)
		}
		v, err := c.valSerializer.Deserialize(e.Value)
		if err != nil {
			return fmt.Errorf("indexedcache: decode value from %s: %w", c.file, err)
		}
		if evicted := c.working.Add(k, v); evicted {
			logger.Debug("indexedcache: working set at capacity during load, oldest entry evicted", "file", c.file)
		}
	}
	return nil
}

// Get implements IndexedCache.
func (c *DefaultCache[K, V]) Get(key K) (V, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.working.Get(key)
	return v, ok, nil
}

// Put implements IndexedCache.
func (c *DefaultCache[K, V]) Put(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.working.Add(key, value)
	c.dirty = true
	return nil
}

// Remove implements IndexedCache.
func (c *DefaultCache[K, V]) Remove(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working.Remove(key) {
		c.dirty = true
	}
	return nil
}

// Keys implements IndexedCache.
func (c *DefaultCache[K, V]) Keys() ([]K, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.working.Keys(), nil
}

// Close implements IndexedCache. It persists the working set if dirty and
// releases in-memory resources.
func (c *DefaultCache[K, V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if !c.dirty {
		return nil
	}
	if err := c.persist(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// persist writes the current working set to c.file atomically. Caller must
// hold c.mu.
func (c *DefaultCache[K, V]) persist() error {
	entries := make([]entry[K, V], 0, c.working.Len())
	for _, k := range c.working.Keys() {
		v, ok := c.working.Peek(k)
		if !ok {
			continue
		}
		kb, err := c.keySerializer.Serialize(k)
		if err != nil {
			return fmt.Errorf("indexedcache: encode key for %s: %w", c.file, err)
		}
		vb, err := c.valSerializer.Serialize(v)
		if err != nil {
			return fmt.Errorf("indexedcache: encode value for %s: %w", c.file, err)
		}
		entries = append(entries, entry[K, V]{Key: kb, Value: vb})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return fmt.Errorf("indexedcache: encode snapshot for %s: %w", c.file, err)
	}

	if err := renameio.WriteFile(c.file, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("indexedcache: write snapshot %s: %w", c.file, err)
	}
	return nil
}

// Flush persists the working set without closing the cache. Callers
// running inside a coordinator-managed FileLock.WriteFile region use this
// to publish durable state before the lock is released, without losing
// the in-memory working set for subsequent UseCache frames.
func (c *DefaultCache[K, V]) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := c.persist(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
