package store

import "context"

// Store is the durability sink for terminal run records. Keys are grouped
// under a prefix so one backend can host several record families.
type Store interface {
	// Get returns nil with no error for a missing prefix+key.
	Get(ctx context.Context, prefix, key string) ([]byte, error)
	Set(ctx context.Context, prefix, key string, value []byte) error
	/**
	 * Remove a prefix and key.
	 * Removing an unknown prefix + key is NOT an error.
	 */
	Remove(ctx context.Context, prefix, key string) error

	List(ctx context.Context, prefix string, iterator func(key string) bool) error
}
