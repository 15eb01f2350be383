package ports

import "context"

// UpdateFunc receives the current value of a key (nil when absent) and
// returns the value to store. Returning a nil value leaves the key untouched;
// returning an error aborts the update without writing.
type UpdateFunc func(current []byte) ([]byte, error)

// KVStore is the persistence backend for the account and session blobs.
type KVStore interface {
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	// Update performs an atomic read-modify-write of key. Concurrent writers
	// never observe or overwrite each other's intermediate state.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
