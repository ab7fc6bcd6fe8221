package cacheaccess

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/pkg/indexedcache"
)

func stringCacheFactory(t *testing.T, dir string) indexedcache.CreateCacheFunc[string, string] {
	return func(file string, keySer, valSer indexedcache.Serializer[string]) (indexedcache.IndexedCache[string, string], error) {
		return indexedcache.New[string, string](file, 0, keySer, valSer)
	}
}

func TestRegistry_BuildsOnceAndReturnsSameObjectForCompatibleParams(t *testing.T) {
	dir := t.TempDir()
	r := NewCacheRegistry(dir, nil)

	params := CacheParameters[string, string]{Name: "widgets"}
	c1, err := GetOrBuild[string, string](r, params, stringCacheFactory(t, dir))
	require.NoError(t, err)

	c2, err := GetOrBuild[string, string](r, params, stringCacheFactory(t, dir))
	require.NoError(t, err)

	assert.Same(t, c1, c2)
}

func TestRegistry_IncompatibleReuseFailsAndKeepsFirstCache(t *testing.T) {
	dir := t.TempDir()
	r := NewCacheRegistry(dir, nil)

	params := CacheParameters[string, string]{Name: "widgets"}
	c1, err := GetOrBuild[string, string](r, params, stringCacheFactory(t, dir))
	require.NoError(t, err)

	intFactory := func(file string, keySer indexedcache.Serializer[string], valSer indexedcache.Serializer[int64]) (indexedcache.IndexedCache[string, int64], error) {
		return indexedcache.New[string, int64](file, 0, keySer, valSer)
	}
	_, err = GetOrBuild[string, int64](r, CacheParameters[string, int64]{Name: "widgets"}, intFactory)
	assert.ErrorIs(t, err, cacheerrors.ErrInvalidCacheReuse)

	c1Again, err := GetOrBuild[string, string](r, params, stringCacheFactory(t, dir))
	require.NoError(t, err)
	assert.Same(t, c1, c1Again)
}

func TestRegistry_CustomSerializerIncompatibleWithDefault(t *testing.T) {
	dir := t.TempDir()
	r := NewCacheRegistry(dir, nil)

	_, err := GetOrBuild[string, string](r, CacheParameters[string, string]{Name: "widgets"}, stringCacheFactory(t, dir))
	require.NoError(t, err)

	custom := indexedcache.GobSerializer[string]{}
	_, err = GetOrBuild[string, string](r, CacheParameters[string, string]{
		Name:          "widgets",
		KeySerializer: custom,
	}, stringCacheFactory(t, dir))
	assert.ErrorIs(t, err, cacheerrors.ErrInvalidCacheReuse)
}

func TestRegistry_ConstructionDoesNotCreateLockArtifacts(t *testing.T) {
	dir := t.TempDir()
	r := NewCacheRegistry(dir, nil)

	_, err := GetOrBuild[string, string](r, CacheParameters[string, string]{Name: "widgets"}, stringCacheFactory(t, dir))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "widgets.lock"))
}
