package indexedcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCache_PutGetRemove(t *testing.T) {
	file := filepath.Join(t.TempDir(), "widgets.cache")
	c, err := New[string, string](file, 0, StringSerializer{}, StringSerializer{})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("a", "1"))
	v, ok, err := c.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, c.Remove("a"))
	_, ok, err = c.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultCache_PersistsAcrossReopen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "widgets.cache")

	c, err := New[string, int64](file, 0, StringSerializer{}, Int64Serializer{})
	require.NoError(t, err)
	require.NoError(t, c.Put("count", 42))
	require.NoError(t, c.Close())

	c2, err := New[string, int64](file, 0, StringSerializer{}, Int64Serializer{})
	require.NoError(t, err)
	defer c2.Close()

	v, ok, err := c2.Get("count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestDefaultCache_FlushWithoutClose(t *testing.T) {
	file := filepath.Join(t.TempDir(), "widgets.cache")

	c, err := New[string, string](file, 0, StringSerializer{}, StringSerializer{})
	require.NoError(t, err)
	require.NoError(t, c.Put("a", "1"))
	require.NoError(t, c.Flush())

	c2, err := New[string, string](file, 0, StringSerializer{}, StringSerializer{})
	require.NoError(t, err)
	defer c2.Close()

	v, ok, err := c2.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, c.Close())
}

func TestDefaultCache_KeysReflectsWorkingSet(t *testing.T) {
	file := filepath.Join(t.TempDir(), "widgets.cache")
	c, err := New[string, string](file, 0, StringSerializer{}, StringSerializer{})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put("a", "1"))
	require.NoError(t, c.Put("b", "2"))

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestNew_NonexistentFileStartsEmpty(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing.cache")
	c, err := New[string, string](file, 0, StringSerializer{}, StringSerializer{})
	require.NoError(t, err)
	defer c.Close()

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
