package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrKeyNotFound is returned by Get and Delete when the key has no
	// live entry in the mapping.
	ErrKeyNotFound = errors.New("redis dict: key not found")

	// ErrDecode wraps failures to decode a stored value as JSON. Under
	// normal use only the dict writes to its hash, so this indicates
	// external tampering or a schema migration.
	ErrDecode = errors.New("redis dict: malformed stored value")
)

// Dict is a persistent mapping of string keys to JSON-encoded values of
// type T, stored as a single Redis hash named at construction. It holds no
// local state beyond the client handle: every operation is one or more
// round trips to the store, and entries never expire.
//
// Implements domain.Mapping[T].
type Dict[T any] struct {
	client *redis.Client
	name   string
	logger *zap.Logger
}

// NewDict creates a Dict backed by the hash named name.
func NewDict[T any](client *redis.Client, name string, logger *zap.Logger) *Dict[T] {
	return &Dict[T]{
		client: client,
		name:   name,
		logger: logger,
	}
}

// Name returns the hash name backing this mapping.
func (d *Dict[T]) Name() string {
	return d.name
}

// Set writes value under key, overwriting any prior value.
func (d *Dict[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for field %q: %w", key, err)
	}

	if err := d.client.HSet(ctx, d.name, key, data).Err(); err != nil {
		d.logger.Error("dict set failed",
			zap.String("dict", d.name),
			zap.String("key", key),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound if absent.
// A stored JSON null is not distinguishable from a zero value here.
func (d *Dict[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := d.client.HGet(ctx, d.name, key).Result()
	if err == redis.Nil {
		return zero, fmt.Errorf("%w: %s[%s]", ErrKeyNotFound, d.name, key)
	}
	if err != nil {
		return zero, err
	}

	return d.decode(key, data)
}

// GetDefault returns the value stored under key, or def if absent.
func (d *Dict[T]) GetDefault(ctx context.Context, key string, def T) (T, error) {
	v, err := d.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}

	return v, err
}

// Delete removes key, or returns ErrKeyNotFound if it had no live entry.
func (d *Dict[T]) Delete(ctx context.Context, key string) error {
	removed, err := d.client.HDel(ctx, d.name, key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s[%s]", ErrKeyNotFound, d.name, key)
	}

	return nil
}

// Contains reports whether key has a live entry, without decoding it.
func (d *Dict[T]) Contains(ctx context.Context, key string) (bool, error) {
	return d.client.HExists(ctx, d.name, key).Result()
}

// Len returns the number of live entries.
func (d *Dict[T]) Len(ctx context.Context) (int64, error) {
	return d.client.HLen(ctx, d.name).Result()
}

// Keys returns all keys. Ordering is whatever the store returns; callers
// must not rely on it.
func (d *Dict[T]) Keys(ctx context.Context) ([]string, error) {
	return d.client.HKeys(ctx, d.name).Result()
}

// Values returns all values, decoded. Ordering is unspecified.
func (d *Dict[T]) Values(ctx context.Context) ([]T, error) {
	raw, err := d.client.HVals(ctx, d.name).Result()
	if err != nil {
		return nil, err
	}

	values := make([]T, 0, len(raw))
	for _, data := range raw {
		v, err := d.decode("", data)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, nil
}

// Items returns all entries, decoded.
func (d *Dict[T]) Items(ctx context.Context) (map[string]T, error) {
	raw, err := d.client.HGetAll(ctx, d.name).Result()
	if err != nil {
		return nil, err
	}

	items := make(map[string]T, len(raw))
	for key, data := range raw {
		v, err := d.decode(key, data)
		if err != nil {
			return nil, err
		}
		items[key] = v
	}

	return items, nil
}

// SetDefault writes def under key if absent, then returns the stored value.
// This is check-then-write across two round trips, not atomic: a concurrent
// writer can land between the existence check and the write, and its value
// wins on the final read.
func (d *Dict[T]) SetDefault(ctx context.Context, key string, def T) (T, error) {
	exists, err := d.Contains(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	if !exists {
		if err := d.Set(ctx, key, def); err != nil {
			var zero T
			return zero, err
		}
	}

	return d.Get(ctx, key)
}

// Update applies Set for every entry. Not transactional: if a write fails,
// earlier entries remain applied.
func (d *Dict[T]) Update(ctx context.Context, entries map[string]T) error {
	for key, value := range entries {
		if err := d.Set(ctx, key, value); err != nil {
			return err
		}
	}

	return nil
}

// Clear removes the entire mapping by deleting the backing hash.
func (d *Dict[T]) Clear(ctx context.Context) error {
	if err := d.client.Del(ctx, d.name).Err(); err != nil {
		d.logger.Error("dict clear failed",
			zap.String("dict", d.name),
			zap.Error(err),
		)

		return err
	}

	return nil
}

func (d *Dict[T]) decode(key, data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s[%s]: %v", ErrDecode, d.name, key, err)
	}

	return v, nil
}
