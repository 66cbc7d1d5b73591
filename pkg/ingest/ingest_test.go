package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kalpeny/edgeonepagesimg/pkg/ingest"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

// brokenStore fails every write.
type brokenStore struct {
	store.Store
}

func (brokenStore) Put(context.Context, string, []byte) error {
	return errors.New("kv unavailable")
}

func TestIngestUpload(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	svc := ingest.New(st, nil)

	raw := []byte("0123456789")
	key, rec, err := svc.IngestUpload(ctx, raw, "a.png", "image/png")
	require.NoError(t, err)
	require.Regexp(t, `^[a-z0-9]{8}\.png$`, key)
	require.Equal(t, "a.png", rec.Metadata.Name)
	require.Equal(t, "image/png", rec.Metadata.Type)
	require.Equal(t, int64(10), rec.Metadata.Size)
	require.NotEmpty(t, rec.Metadata.UploadTime)
	require.Empty(t, rec.Metadata.Source)

	value, ok, err := st.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := record.Decode(value)
	require.NoError(t, err)
	payload, err := stored.Payload()
	require.NoError(t, err)
	require.Equal(t, raw, payload)
}

func TestIngestUploadValidation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	svc := ingest.New(st, nil)

	tests := []struct {
		name     string
		raw      []byte
		mimeType string
		wantErr  error
	}{
		{"missing file", nil, "image/png", ingest.ErrMissingFile},
		{"unsupported type", []byte("x"), "application/pdf", ingest.ErrUnsupportedType},
		{"unsupported svg", []byte("x"), "image/svg+xml", ingest.ErrUnsupportedType},
		{"too large", make([]byte, ingest.MaxImageBytes+1), "image/png", ingest.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.IngestUpload(ctx, tt.raw, "a.png", tt.mimeType)
			require.ErrorIs(t, err, tt.wantErr)

			// Validation failures never persist anything.
			keys, err := st.List(ctx)
			require.NoError(t, err)
			require.Empty(t, keys)
		})
	}
}

func TestIngestUploadStorageFailure(t *testing.T) {
	svc := ingest.New(brokenStore{}, nil)

	_, _, err := svc.IngestUpload(context.Background(), []byte("x"), "a.png", "image/png")
	var storeErr *ingest.StorageError
	require.ErrorAs(t, err, &storeErr)
	require.Contains(t, storeErr.Error(), "kv unavailable")
}

func TestIngestTelegram(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	svc := ingest.New(st, nil)

	key, rec, err := svc.IngestTelegram(ctx, []byte("photo-bytes"), "FILE42", "image/jpeg", "jpg")
	require.NoError(t, err)
	require.Regexp(t, `^[a-z0-9]{8}\.jpg$`, key)
	require.Equal(t, record.SourceTelegram, rec.Metadata.Source)
	require.Equal(t, "tg_FILE42.jpg", rec.Metadata.Name)
	require.Equal(t, "image/jpeg", rec.Metadata.Type)
}

func TestIngestTelegramDefaults(t *testing.T) {
	ctx := context.Background()
	svc := ingest.New(store.NewMemory(nil), nil)

	// No content type from the download and a malformed extension hint.
	key, rec, err := svc.IngestTelegram(ctx, []byte("photo-bytes"), "F", "", "superlongext")
	require.NoError(t, err)
	require.Regexp(t, `^[a-z0-9]{8}\.jpg$`, key)
	require.Equal(t, "image/jpeg", rec.Metadata.Type)
}

func TestIngestTelegramTooLarge(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(nil)
	svc := ingest.New(st, nil)

	_, _, err := svc.IngestTelegram(ctx, make([]byte, ingest.MaxImageBytes+1), "F", "image/jpeg", "jpg")
	require.ErrorIs(t, err, ingest.ErrTooLarge)

	keys, err := st.List(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}
