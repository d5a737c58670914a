// Package locker provides distributed locking for coordinating work across
// multiple service instances sharing one Redis deployment.
package locker

import (
	"context"
	"time"
)

// Lock is a single-owner, expiring mutual-exclusion lock bound to one name.
// Each Lock instance carries its own random token; the token proves
// ownership on renew and release, so instances in different processes can
// safely contend for the same name.
//
// There is no blocking variant: callers poll Acquire themselves if they
// want to wait. Implementations must be safe for concurrent use.
type Lock interface {
	// Acquire attempts to create the lock record, succeeding only if no
	// record currently exists. The record expires after the lock's TTL
	// unless renewed. Returns whether this instance now holds the lock;
	// contention is an ordinary false, not an error.
	Acquire(ctx context.Context) (bool, error)

	// Renew atomically extends the TTL, but only while the record still
	// carries this instance's token. Returns false once the lock has
	// expired or been taken over by another holder.
	Renew(ctx context.Context) (bool, error)

	// Release deletes the record only if it still carries this instance's
	// token. Releasing a lost or expired lock is the expected case for
	// TTL-based locks and is a silent no-op, never an error.
	Release(ctx context.Context) error

	// Held reports the result of the last Acquire.
	Held() bool
}

// DistributedLocker provides keyed try-lock semantics for short critical
// sections, where the caller names the resource per call instead of
// constructing one Lock per name.
// Implementations: RedsyncLocker.
type DistributedLocker interface {
	// Acquire attempts to take the lock for key, expiring after ttl.
	// Returns true if acquired, false if another instance holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key. Safe to call when this instance
	// does not own it (no-op).
	Release(ctx context.Context, key string) error
}
