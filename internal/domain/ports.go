package domain

import (
	"context"
)

// Mapping defines a persistent, string-keyed mapping of JSON-serializable
// values held in the remote store. Every operation is a single round trip;
// there is no in-process cache.
// Implementations: internal/infra/redis/dict.go
type Mapping[T any] interface {
	// Set writes value under key, overwriting any prior value.
	Set(ctx context.Context, key string, value T) error

	// Get returns the value stored under key.
	// Returns ErrKeyNotFound (from the implementation package) if absent.
	Get(ctx context.Context, key string) (T, error)

	// GetDefault returns the value stored under key, or def if absent.
	GetDefault(ctx context.Context, key string, def T) (T, error)

	// Delete removes key. Fails if the key was not present.
	Delete(ctx context.Context, key string) error

	// Contains reports whether key has a live entry, without decoding.
	Contains(ctx context.Context, key string) (bool, error)

	// Len returns the number of live entries.
	Len(ctx context.Context) (int64, error)

	// Keys returns all keys. Ordering is unspecified.
	Keys(ctx context.Context) ([]string, error)

	// Values returns all values, decoded. Ordering is unspecified.
	Values(ctx context.Context) ([]T, error)

	// Items returns all entries, decoded.
	Items(ctx context.Context) (map[string]T, error)

	// SetDefault writes def under key if absent, then returns the stored
	// value. Check-then-write, not atomic: a concurrent writer can race
	// between the existence check and the write.
	SetDefault(ctx context.Context, key string, def T) (T, error)

	// Update applies Set for every entry. Not transactional: a failure
	// leaves earlier entries applied.
	Update(ctx context.Context, entries map[string]T) error

	// Clear removes the entire mapping.
	Clear(ctx context.Context) error
}
