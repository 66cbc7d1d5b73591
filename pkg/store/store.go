package store

import "context"

// Store is the key-value backing for image records. Values are opaque
// bytes; enumeration order is not guaranteed.
type Store interface {
	// Get returns the value for key. The boolean indicates presence.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put writes value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// List enumerates all stored keys.
	List(ctx context.Context) ([]string, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
