// Package service contains the application services built on the remote
// pools and locks.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chat-coordination-service/internal/domain"
	infraredis "chat-coordination-service/internal/infra/redis"
	"chat-coordination-service/pkg/locker"
)

// userGuardTTL bounds the critical section around one user's session list.
const userGuardTTL = 5 * time.Second

// ErrSessionNotFound is returned when a session ID has no live entry.
var ErrSessionNotFound = errors.New("session not found")

// PresenceService coordinates session, user and model-usage state across
// all server processes. All state lives in the remote pools; the service
// itself is a stateless facade.
type PresenceService struct {
	sessions domain.Mapping[domain.Session]
	users    domain.Mapping[[]string]
	usage    domain.Mapping[domain.ModelUsage]
	guard    locker.DistributedLocker
	logger   *zap.Logger
}

// NewPresenceService creates a PresenceService over the given pools.
// guard protects per-user read-modify-write of the user pool, which is not
// atomic at the store.
func NewPresenceService(
	sessions domain.Mapping[domain.Session],
	users domain.Mapping[[]string],
	usage domain.Mapping[domain.ModelUsage],
	guard locker.DistributedLocker,
	logger *zap.Logger,
) *PresenceService {
	return &PresenceService{
		sessions: sessions,
		users:    users,
		usage:    usage,
		guard:    guard,
		logger:   logger,
	}
}

// Register records a new session and adds it to its user's session list.
func (s *PresenceService) Register(ctx context.Context, sess domain.Session) error {
	if err := s.sessions.Set(ctx, sess.ID, sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	err := s.withUserGuard(ctx, sess.UserID, func() error {
		ids, err := s.users.GetDefault(ctx, sess.UserID, nil)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == sess.ID {
				return nil
			}
		}

		return s.users.Set(ctx, sess.UserID, append(ids, sess.ID))
	})
	if err != nil {
		return fmt.Errorf("update user pool: %w", err)
	}

	s.logger.Debug("session registered",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
	)

	return nil
}

// Unregister removes a session and drops it from its user's session list.
// Returns ErrSessionNotFound if the session has no live entry.
func (s *PresenceService) Unregister(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, infraredis.ErrKeyNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, infraredis.ErrKeyNotFound) {
		return err
	}

	err = s.withUserGuard(ctx, sess.UserID, func() error {
		ids, err := s.users.GetDefault(ctx, sess.UserID, nil)
		if err != nil {
			return err
		}

		remaining := ids[:0]
		for _, id := range ids {
			if id != sessionID {
				remaining = append(remaining, id)
			}
		}

		if len(remaining) == 0 {
			err := s.users.Delete(ctx, sess.UserID)
			if errors.Is(err, infraredis.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return s.users.Set(ctx, sess.UserID, remaining)
	})
	if err != nil {
		return fmt.Errorf("update user pool: %w", err)
	}

	s.logger.Debug("session unregistered",
		zap.String("session_id", sessionID),
		zap.String("user_id", sess.UserID),
	)

	return nil
}

// Session returns one session by ID, or ErrSessionNotFound.
func (s *PresenceService) Session(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, infraredis.ErrKeyNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}

	return sess, err
}

// Sessions returns all live sessions.
func (s *PresenceService) Sessions(ctx context.Context) (map[string]domain.Session, error) {
	return s.sessions.Items(ctx)
}

// ActiveUsers returns the IDs of all users with at least one live session.
func (s *PresenceService) ActiveUsers(ctx context.Context) ([]string, error) {
	return s.users.Keys(ctx)
}

// UserSessions returns the session IDs of one user. A user with no live
// sessions yields an empty slice, not an error.
func (s *PresenceService) UserSessions(ctx context.Context, userID string) ([]string, error) {
	return s.users.GetDefault(ctx, userID, []string{})
}

// SessionCount returns the number of live sessions.
func (s *PresenceService) SessionCount(ctx context.Context) (int64, error) {
	return s.sessions.Len(ctx)
}

// RecordUsage marks sessionID as actively using modelID.
func (s *PresenceService) RecordUsage(ctx context.Context, modelID, sessionID string) error {
	usage, err := s.usage.GetDefault(ctx, modelID, domain.NewModelUsage())
	if err != nil {
		return err
	}

	usage.Touch(sessionID, time.Now())

	return s.usage.Set(ctx, modelID, usage)
}

// ActiveModels returns usage for all models with at least one tracked
// session.
func (s *PresenceService) ActiveModels(ctx context.Context) (map[string]domain.ModelUsage, error) {
	return s.usage.Items(ctx)
}

// CleanupUsage drops usage entries older than maxAge and deletes models
// left with no sessions. Returns the number of entries removed. Callers
// are expected to hold the cleanup lock so only one process sweeps.
func (s *PresenceService) CleanupUsage(ctx context.Context, maxAge time.Duration) (int, error) {
	models, err := s.usage.Items(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0

	for modelID, usage := range models {
		pruned := usage.Prune(maxAge, now)
		if pruned == 0 {
			continue
		}
		removed += pruned

		if usage.Active() == 0 {
			err := s.usage.Delete(ctx, modelID)
			if err != nil && !errors.Is(err, infraredis.ErrKeyNotFound) {
				return removed, err
			}
			continue
		}

		if err := s.usage.Set(ctx, modelID, usage); err != nil {
			return removed, err
		}
	}

	if removed > 0 {
		s.logger.Info("usage pool cleaned",
			zap.Int("removed", removed),
			zap.Duration("max_age", maxAge),
		)
	}

	return removed, nil
}

// withUserGuard runs fn inside the per-user keyed lock. The guard makes the
// list update safe against concurrent registers for the same user; without
// it two processes could read the same list and each write back their own
// append.
func (s *PresenceService) withUserGuard(ctx context.Context, userID string, fn func() error) error {
	key := "user-pool:guard:" + userID

	acquired, err := s.guard.Acquire(ctx, key, userGuardTTL)
	if err != nil {
		return err
	}
	if !acquired {
		// Single holder per user; let the caller retry through its own
		// policy rather than spinning here.
		return fmt.Errorf("user pool busy for user %s", userID)
	}
	defer func() {
		if err := s.guard.Release(ctx, key); err != nil {
			s.logger.Warn("failed to release user pool guard",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}()

	return fn()
}
