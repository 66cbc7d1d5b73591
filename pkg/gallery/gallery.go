// Package gallery rebuilds the time-ordered image listing by reading
// every record back from the store in bounded batches.
package gallery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

// batchSize caps concurrent store reads. Batches run sequentially; each
// batch fully joins before the next starts, bounding in-flight I/O and
// the memory held by in-flight decodes.
const batchSize = 5

// Summary is one listing entry.
type Summary struct {
	Filename   string          `json:"filename"`
	URL        string          `json:"url"`
	Metadata   record.Metadata `json:"metadata"`
	UploadTime string          `json:"uploadTime"`

	at time.Time // parsed sort key, zero when the timestamp is unusable
}

// Aggregator lists all stored records.
type Aggregator struct {
	store store.Store
	reg   *metrics.Registry
}

// New constructs an aggregator over st.
func New(st store.Store, reg *metrics.Registry) *Aggregator {
	return &Aggregator{store: st, reg: reg}
}

// ListAll enumerates every key, fetches and decodes records in batches
// of five, and returns summaries sorted by upload time descending.
// A single record's fetch or decode failure drops that record only;
// only a failure of the enumeration itself fails the call.
func (a *Aggregator) ListAll(ctx context.Context) ([]Summary, error) {
	keys, err := a.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	out := make([]Summary, 0, len(keys))
	for start := 0; start < len(keys); start += batchSize {
		batch := keys[start:min(start+batchSize, len(keys))]
		results := make([]*Summary, len(batch))

		g := new(errgroup.Group)
		for i, key := range batch {
			g.Go(func() error {
				results[i] = a.fetch(ctx, key)
				return nil
			})
		}
		// fetch never returns an error; the join is the batch gate.
		_ = g.Wait()

		for _, s := range results {
			if s != nil {
				out = append(out, *s)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].at.After(out[j].at)
	})

	if a.reg != nil {
		a.reg.Inc(ctx, "gallery_listings_total", nil, 1)
		a.reg.Inc(ctx, "gallery_records_listed_total", nil, int64(len(out)))
	}
	return out, nil
}

// fetch loads one record. All failures are logged and swallowed so an
// unreadable record never poisons the listing.
func (a *Aggregator) fetch(ctx context.Context, key string) *Summary {
	value, ok, err := a.store.Get(ctx, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("record fetch failed, skipping")
		return nil
	}
	if !ok {
		return nil
	}

	rec, err := record.Decode(value)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("record unreadable, skipping")
		if a.reg != nil {
			a.reg.Inc(ctx, "gallery_records_skipped_total", nil, 1)
		}
		return nil
	}

	return &Summary{
		Filename:   key,
		URL:        "/i/" + key,
		Metadata:   rec.Metadata,
		UploadTime: rec.Metadata.UploadTime,
		at:         rec.UploadedAt(),
	}
}
