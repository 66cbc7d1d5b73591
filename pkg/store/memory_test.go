package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(nil)

	require.NoError(t, m.Put(ctx, "abc12345.png", []byte("value")))

	got, ok, err := m.Get(ctx, "abc12345.png")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), got)

	// Stored data must not alias the caller's buffer.
	got[0] = 'X'
	again, _, _ := m.Get(ctx, "abc12345.png")
	require.Equal(t, []byte("value"), again)

	_, ok, err = m.Get(ctx, "missing.png")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryPutEmptyKey(t *testing.T) {
	m := store.NewMemory(nil)
	require.Error(t, m.Put(context.Background(), "", []byte("v")))
}

func TestMemoryListDelete(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(nil)

	require.NoError(t, m.Put(ctx, "a.png", []byte("1")))
	require.NoError(t, m.Put(ctx, "b.jpg", []byte("2")))

	keys, err := m.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.png", "b.jpg"}, keys)

	require.NoError(t, m.Delete(ctx, "a.png"))
	require.NoError(t, m.Delete(ctx, "a.png"), "deleting an absent key is not an error")

	keys, err = m.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b.jpg"}, keys)
}
