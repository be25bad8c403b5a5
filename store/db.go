package store

import "context"

// DB is the durable key-value store that holds the timer state. Values are
// opaque JSON records.
type DB interface {
	// Get returns the values stored under the given keys. Missing keys are
	// absent from the result.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set writes all values atomically. A nil value removes the key.
	Set(ctx context.Context, values map[string][]byte) error
	// Close ends the database connection
	Close() error
}
