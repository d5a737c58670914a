package locker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedsyncLocker implements DistributedLocker on top of Redsync's Redlock
// mutexes. It is used for short keyed critical sections, e.g. guarding the
// read-modify-write of one user's session list in the presence pool.
type RedsyncLocker struct {
	rs      *redsync.Redsync
	logger  *zap.Logger
	mutexes map[string]*redsync.Mutex
	mu      sync.Mutex
}

// NewRedsyncLocker creates a Redsync-backed keyed locker on the given
// client. Acquisition is non-blocking (single try) so contention surfaces
// as an ordinary false.
func NewRedsyncLocker(client *redis.Client, logger *zap.Logger) *RedsyncLocker {
	pool := goredis.NewPool(client)

	return &RedsyncLocker{
		rs:      redsync.New(pool),
		logger:  logger,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

// Acquire attempts to take the lock for key, expiring after ttl. Returns
// false without error when another instance holds it.
func (r *RedsyncLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex := r.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		// Redsync reports contention either as ErrFailed or as a wrapped
		// "lock already taken" error depending on the node count.
		if err == redsync.ErrFailed || strings.Contains(err.Error(), "lock already taken") {
			r.logger.Debug("lock held by another instance",
				zap.String("key", key),
			)

			return false, nil
		}

		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	r.logger.Debug("lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return true, nil
}

// Release frees the lock for key if this instance took it. Redsync checks
// the ownership token internally, so releasing someone else's lock or an
// expired one is a no-op.
func (r *RedsyncLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, exists := r.mutexes[key]
	if exists {
		delete(r.mutexes, key)
	}
	r.mu.Unlock()

	if !exists {
		return nil
	}

	if _, err := mutex.UnlockContext(ctx); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}

	return nil
}
