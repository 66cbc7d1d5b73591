package gallery_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kalpeny/edgeonepagesimg/pkg/gallery"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

// countingStore tracks the peak number of concurrent Get calls.
type countingStore struct {
	store.Store
	current atomic.Int32
	peak    atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cur := c.current.Add(1)
	defer c.current.Add(-1)
	for {
		peak := c.peak.Load()
		if cur <= peak || c.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond) // widen the overlap window
	return c.Store.Get(ctx, key)
}

// brokenListStore fails enumeration itself.
type brokenListStore struct {
	store.Store
}

func (brokenListStore) List(context.Context) ([]string, error) {
	return nil, errors.New("kv list unavailable")
}

func putRecord(t *testing.T, st store.Store, key string, uploadTime string) {
	t.Helper()
	value, err := record.Encode([]byte("img-"+key), record.Metadata{
		Name:       key,
		Type:       "image/png",
		UploadTime: uploadTime,
	})
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), key, value))
}

func TestListAllSkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 10 {
		key := fmt.Sprintf("good%04d.png", i)
		putRecord(t, mem, key, record.Timestamp(base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, mem.Put(ctx, "broken01.png", []byte("not json at all")))
	require.NoError(t, mem.Put(ctx, "broken02.png", []byte(`{"metadata":{}}`)))

	st := &countingStore{Store: mem}
	agg := gallery.New(st, nil)

	images, err := agg.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, images, 10, "the 2 malformed records are dropped, not fatal")
	require.LessOrEqual(t, st.peak.Load(), int32(5), "reads beyond the batch size must not overlap")

	for _, img := range images {
		require.Regexp(t, `^good\d{4}\.png$`, img.Filename)
		require.Equal(t, "/i/"+img.Filename, img.URL)
	}
}

func TestListAllSortsDescending(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)

	putRecord(t, mem, "old.png", "2023-01-01T00:00:00Z")
	putRecord(t, mem, "new.png", "2025-06-01T00:00:00Z")
	putRecord(t, mem, "mid.png", "2024-03-15T09:30:00Z")
	putRecord(t, mem, "notime.png", "")
	putRecord(t, mem, "badtime.png", "around lunchtime")

	images, err := gallery.New(mem, nil).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, images, 5)

	var names []string
	for _, img := range images {
		names = append(names, img.Filename)
	}
	require.Equal(t, []string{"new.png", "mid.png", "old.png"}, names[:3])

	// Zero-timestamp records sort last, relative order unspecified.
	require.ElementsMatch(t, []string{"notime.png", "badtime.png"}, names[3:])
}

func TestListAllEmpty(t *testing.T) {
	images, err := gallery.New(store.NewMemory(nil), nil).ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, images)
}

func TestListAllEnumerationFailure(t *testing.T) {
	agg := gallery.New(brokenListStore{}, nil)

	_, err := agg.ListAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "kv list unavailable")
}
