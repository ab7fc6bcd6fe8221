package filelock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheerrors "github.com/fenwick/cachecoord/errors"
)

func TestLock_ExclusiveThenClose(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	m := NewManager()
	lock, err := m.Lock(lockPath, ModeExclusive, "test")
	require.NoError(t, err)
	assert.Equal(t, ModeExclusive, lock.Mode())

	require.NoError(t, lock.Close())
}

func TestLock_NoneModeAcquiresNothing(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	m := NewManager()
	lock, err := m.Lock(lockPath, ModeNone, "test")
	require.NoError(t, err)
	assert.Equal(t, ModeNone, lock.Mode())
	require.NoError(t, lock.Close())
}

func TestLock_TimesOutWhenContended(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	blocker := flock.New(lockPath + ".lock")
	locked, err := blocker.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer blocker.Unlock()

	m := NewManager(WithRetryBudget(3, time.Millisecond))
	_, err = m.Lock(lockPath, ModeExclusive, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheerrors.ErrLockTimeout)
}

func TestWriteFile_RequiresExclusive(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	m := NewManager()
	lock, err := m.Lock(lockPath, ModeShared, "test")
	require.NoError(t, err)
	defer lock.Close()

	err = lock.WriteFile(func() error { return nil })
	assert.ErrorIs(t, err, ErrNotExclusive)
}

func TestWriteFile_ClearsDirtyMarkerOnSuccess(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	m := NewManager()
	lock, err := m.Lock(lockPath, ModeExclusive, "test")
	require.NoError(t, err)
	defer lock.Close()

	ran := false
	err = lock.WriteFile(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	_, statErr := os.Stat(lockPath + ".dirty")
	assert.True(t, os.IsNotExist(statErr))
}

func TestAllowContention_FiresOnPing(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "cache")

	m := NewManager(WithPollInterval(5 * time.Millisecond))
	lock, err := m.Lock(lockPath, ModeExclusive, "test")
	require.NoError(t, err)
	defer lock.Close()

	fired := make(chan struct{}, 1)
	m.AllowContention(lock, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	m.pingWaiters(lockPath)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("contention callback never fired")
	}
}
