package fingerprint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "fingerprints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndBySource(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	mod := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, Fingerprint{
		Source: "local:/docs", Locator: "/docs/a.txt", Size: 11, ModTime: mod, Hash: "abc",
	}))
	require.NoError(t, store.Put(ctx, Fingerprint{
		Source: "drive:reports", Locator: "xyz", Size: 2048, ModTime: mod,
	}))

	local, err := store.BySource(ctx, "local:/docs")
	require.NoError(t, err)
	require.Len(t, local, 1)

	fp := local["/docs/a.txt"]
	assert.Equal(t, int64(11), fp.Size)
	assert.True(t, fp.ModTime.Equal(mod))
	assert.Equal(t, "abc", fp.Hash)

	remote, err := store.BySource(ctx, "drive:reports")
	require.NoError(t, err)
	assert.Empty(t, remote["xyz"].Hash)
}

func TestStore_PutReplacesExisting(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	fp := Fingerprint{Source: "s", Locator: "a", Size: 1, ModTime: time.Now()}
	require.NoError(t, store.Put(ctx, fp))

	fp.Size = 2
	fp.Hash = "updated"
	require.NoError(t, store.Put(ctx, fp))

	got, err := store.BySource(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got["a"].Size)
	assert.Equal(t, "updated", got["a"].Hash)
}

func TestStore_Delete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Fingerprint{Source: "s", Locator: "a", ModTime: time.Now()}))
	require.NoError(t, store.Delete(ctx, "s", "a"))
	require.NoError(t, store.Delete(ctx, "s", "never-existed"))

	got, err := store.BySource(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReplaceSource(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	mod := time.Now()

	require.NoError(t, store.Put(ctx, Fingerprint{Source: "s", Locator: "old", ModTime: mod}))
	require.NoError(t, store.Put(ctx, Fingerprint{Source: "other", Locator: "keep", ModTime: mod}))

	require.NoError(t, store.ReplaceSource(ctx, "s", []Fingerprint{
		{Locator: "a", Size: 1, ModTime: mod},
		{Locator: "b", Size: 2, ModTime: mod},
	}))

	got, err := store.BySource(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "old")

	other, err := store.BySource(ctx, "other")
	require.NoError(t, err)
	assert.Contains(t, other, "keep", "replacing one source must not touch others")
}

func TestStore_LastUpdated(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	last, err := store.LastUpdated(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	before := time.Now()
	require.NoError(t, store.Put(ctx, Fingerprint{Source: "s", Locator: "a", ModTime: before}))

	last, err = store.LastUpdated(ctx)
	require.NoError(t, err)
	assert.False(t, last.Before(before))
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprints.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, Fingerprint{Source: "s", Locator: "a", Size: 7, ModTime: time.Now()}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.BySource(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got["a"].Size)
}
