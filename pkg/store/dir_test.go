package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

func newDirStore(t *testing.T) *store.Dir {
	t.Helper()
	d, err := store.NewDir(t.TempDir(), nil)
	require.NoError(t, err)
	return d
}

func TestDirPutGetDelete(t *testing.T) {
	ctx := context.Background()
	d := newDirStore(t)

	require.NoError(t, d.Put(ctx, "abc12345.png", []byte("value")))

	got, ok, err := d.Get(ctx, "abc12345.png")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), got)

	// Overwrite is last-writer-wins.
	require.NoError(t, d.Put(ctx, "abc12345.png", []byte("newer")))
	got, _, _ = d.Get(ctx, "abc12345.png")
	require.Equal(t, []byte("newer"), got)

	require.NoError(t, d.Delete(ctx, "abc12345.png"))
	require.NoError(t, d.Delete(ctx, "abc12345.png"))

	_, ok, err = d.Get(ctx, "abc12345.png")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDirRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	d := newDirStore(t)

	for _, key := range []string{
		"",
		"../escape.png",
		"/etc/passwd",
		"sub/dir.png",
		".hidden",
		"UPPER.PNG",
		"spaced name.png",
	} {
		err := d.Put(ctx, key, []byte("v"))
		require.ErrorIs(t, err, store.ErrInvalidKey, "key %q", key)
	}
}

func TestDirListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := store.NewDir(root, nil)
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a.png", []byte("1")))
	require.NoError(t, d.Put(ctx, "b.gif", []byte("2")))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".put-123"), []byte("partial"), 0o644))

	keys, err := d.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.png", "b.gif"}, keys)
}
