// Package ingest validates, encodes and persists incoming images. Both
// entry points (direct upload and Telegram webhook) converge here on the
// same persistence path: key generation, record encoding, store put.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

// MaxImageBytes is the ceiling for a single image on both paths.
const MaxImageBytes = 25 << 20

var (
	ErrMissingFile     = errors.New("no image file provided")
	ErrUnsupportedType = errors.New("only JPG, PNG, GIF and WebP images are supported")
	ErrTooLarge        = fmt.Errorf("image exceeds the %d MiB limit", MaxImageBytes>>20)
)

// allowedTypes is the MIME allow-list for direct uploads. Telegram
// ingestion trusts the download's content type instead.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// StorageError wraps a store failure so handlers can map it to 500
// instead of a validation 400.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage failure: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Service persists images into the injected store.
type Service struct {
	store store.Store
	reg   *metrics.Registry
	now   func() time.Time
}

// New constructs an ingestion service over st.
func New(st store.Store, reg *metrics.Registry) *Service {
	return &Service{store: st, reg: reg, now: time.Now}
}

// IngestUpload handles the direct-upload variant: allow-list and size
// validation, key from the original filename's extension, no source tag.
func (s *Service) IngestUpload(ctx context.Context, raw []byte, originalName, mimeType string) (string, *record.Record, error) {
	if len(raw) == 0 {
		return "", nil, ErrMissingFile
	}
	if !allowedTypes[mimeType] {
		return "", nil, ErrUnsupportedType
	}
	if len(raw) > MaxImageBytes {
		return "", nil, ErrTooLarge
	}

	meta := record.Metadata{
		Name: originalName,
		Type: mimeType,
	}
	return s.persist(ctx, raw, meta, record.ExtHint(originalName), "upload")
}

// IngestTelegram handles the bot variant. The extension hint comes from
// the remote file path, the MIME type from the download response and the
// stored name records the originating file identifier.
func (s *Service) IngestTelegram(ctx context.Context, raw []byte, fileID, mimeType, extHint string) (string, *record.Record, error) {
	if len(raw) == 0 {
		return "", nil, ErrMissingFile
	}
	if len(raw) > MaxImageBytes {
		return "", nil, ErrTooLarge
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	meta := record.Metadata{
		Name:   "tg_" + fileID + "." + record.NormalizeExt(extHint),
		Type:   mimeType,
		Source: record.SourceTelegram,
	}
	return s.persist(ctx, raw, meta, extHint, record.SourceTelegram)
}

// persist is the convergent tail of both variants. Validation has already
// passed; put is the last step, so a failure leaves no partial record.
func (s *Service) persist(ctx context.Context, raw []byte, meta record.Metadata, extHint, source string) (string, *record.Record, error) {
	meta.UploadTime = record.Timestamp(s.now())

	key := record.NewKey(extHint)
	value, err := record.Encode(raw, meta)
	if err != nil {
		return "", nil, err
	}

	if err := s.store.Put(ctx, key, value); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("store put failed")
		return "", nil, &StorageError{Err: err}
	}

	log.Ctx(ctx).Info().
		Str("key", key).
		Str("source", source).
		Int("bytes", len(raw)).
		Msg("image ingested")
	if s.reg != nil {
		s.reg.Inc(ctx, "images_ingested_total", map[string]string{"source": source}, 1)
		s.reg.Inc(ctx, "images_ingested_bytes_total", map[string]string{"source": source}, int64(len(raw)))
	}

	rec := &record.Record{Metadata: meta}
	rec.Metadata.Size = int64(len(raw))
	return key, rec, nil
}
