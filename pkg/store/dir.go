package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
)

var ErrInvalidKey = errors.New("key contains invalid characters")

// Dir is a Store keeping one file per key inside a flat directory.
type Dir struct {
	root string
	reg  *metrics.Registry
}

// NewDir creates the directory if needed and returns a store rooted there.
func NewDir(root string, reg *metrics.Registry) (*Dir, error) {
	if root == "" {
		return nil, errors.New("empty store directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Dir{root: root, reg: reg}, nil
}

// validateKey rejects anything that could escape the root directory.
// Generated keys only contain lowercase alphanumerics and a single dot.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	if len(key) > 64 {
		return fmt.Errorf("key too long: %w", ErrInvalidKey)
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return fmt.Errorf("invalid character %q at position %d: %w", r, i, ErrInvalidKey)
		}
	}
	if key[0] == '.' {
		return fmt.Errorf("key cannot start with a dot: %w", ErrInvalidKey)
	}
	return nil
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, key)
}

// Get reads the value file for key.
func (d *Dir) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(d.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return b, true, nil
}

// Put writes the value through a temp file and renames it into place, so
// a partially written value is never visible under its final key.
func (d *Dir) Put(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.root, ".put-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, d.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", key, err)
	}

	log.Ctx(ctx).Debug().Str("key", key).Int("bytes", len(value)).Msg("value stored on disk")
	if d.reg != nil {
		d.reg.Inc(ctx, "store_puts_total", map[string]string{"backend": "dir"}, 1)
		d.reg.Inc(ctx, "store_bytes_written_total", map[string]string{"backend": "dir"}, int64(len(value)))
	}
	return nil
}

// List returns the names of all value files. Temp files from in-flight
// puts start with a dot and are skipped.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// Delete removes the value file. Absent files are not an error.
func (d *Dir) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(d.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	log.Ctx(ctx).Debug().Str("key", key).Msg("value deleted from disk")
	if d.reg != nil {
		d.reg.Inc(ctx, "store_deletes_total", map[string]string{"backend": "dir"}, 1)
	}
	return nil
}
