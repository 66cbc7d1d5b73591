package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
)

// Memory is an in-memory Store implementation. Contents are lost on
// restart; it backs tests and deployments without a data directory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	reg  *metrics.Registry
}

// NewMemory creates an empty in-memory store.
func NewMemory(reg *metrics.Registry) *Memory {
	return &Memory{data: make(map[string][]byte), reg: reg}
}

// Get returns a copy of the stored value by key without deleting it.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put stores a copy of value under key.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("empty key")
	}

	// Make a copy of the data to avoid external modifications.
	buf := make([]byte, len(value))
	copy(buf, value)

	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()

	log.Ctx(ctx).Debug().Str("key", key).Int("bytes", len(buf)).Msg("value stored in memory")
	if m.reg != nil {
		m.reg.Inc(ctx, "store_puts_total", map[string]string{"backend": "memory"}, 1)
		m.reg.Inc(ctx, "store_bytes_written_total", map[string]string{"backend": "memory"}, int64(len(buf)))
	}
	return nil
}

// List returns all keys in unspecified order.
func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	return keys, nil
}

// Delete removes the entry from memory.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	v, ok := m.data[key]
	if ok {
		delete(m.data, key)
	}
	m.mu.Unlock()

	if ok {
		log.Ctx(ctx).Debug().Str("key", key).Int("bytes", len(v)).Msg("value deleted from memory")
		if m.reg != nil {
			m.reg.Inc(ctx, "store_deletes_total", map[string]string{"backend": "memory"}, 1)
		}
	}
	return nil
}
