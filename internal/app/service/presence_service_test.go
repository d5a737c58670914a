package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-coordination-service/internal/domain"
	infraredis "chat-coordination-service/internal/infra/redis"
	"chat-coordination-service/pkg/locker"
)

func setupPresence(t *testing.T) *PresenceService {
	t.Helper()

	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()

	return NewPresenceService(
		infraredis.NewDict[domain.Session](client, "session-pool", logger),
		infraredis.NewDict[[]string](client, "user-pool", logger),
		infraredis.NewDict[domain.ModelUsage](client, "usage-pool", logger),
		locker.NewRedsyncLocker(client, logger),
		logger,
	)
}

func TestPresenceService_RegisterAndLookup(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	sess := domain.NewSession("sess-1", "user-1")
	require.NoError(t, svc.Register(ctx, sess))

	got, err := svc.Session(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	users, err := svc.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, users)

	ids, err := svc.UserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, ids)

	count, err := svc.SessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPresenceService_Register_SameSessionTwice(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	sess := domain.NewSession("sess-1", "user-1")
	require.NoError(t, svc.Register(ctx, sess))
	require.NoError(t, svc.Register(ctx, sess))

	ids, err := svc.UserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, ids, "re-registering must not duplicate the session id")
}

func TestPresenceService_MultipleSessionsPerUser(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, domain.NewSession("sess-1", "user-1")))
	require.NoError(t, svc.Register(ctx, domain.NewSession("sess-2", "user-1")))

	ids, err := svc.UserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sess-1", "sess-2"}, ids)

	require.NoError(t, svc.Unregister(ctx, "sess-1"))

	ids, err = svc.UserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-2"}, ids)

	users, err := svc.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, users, "user stays active while a session remains")
}

func TestPresenceService_Unregister_LastSessionRemovesUser(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, domain.NewSession("sess-1", "user-1")))
	require.NoError(t, svc.Unregister(ctx, "sess-1"))

	users, err := svc.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = svc.Session(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPresenceService_Unregister_Unknown(t *testing.T) {
	svc := setupPresence(t)

	err := svc.Unregister(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPresenceService_UserSessions_UnknownUser(t *testing.T) {
	svc := setupPresence(t)

	ids, err := svc.UserSessions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPresenceService_Usage(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, "gpt-x", "sess-1"))
	require.NoError(t, svc.RecordUsage(ctx, "gpt-x", "sess-2"))
	require.NoError(t, svc.RecordUsage(ctx, "vision-y", "sess-1"))

	models, err := svc.ActiveModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, 2, models["gpt-x"].Active())
	assert.Equal(t, 1, models["vision-y"].Active())
}

func TestPresenceService_CleanupUsage(t *testing.T) {
	svc := setupPresence(t)
	ctx := context.Background()

	// Stale entry written directly into the pool.
	stale := domain.NewModelUsage()
	stale.Touch("sess-old", time.Now().Add(-time.Hour))
	require.NoError(t, svc.usage.Set(ctx, "gpt-x", stale))

	require.NoError(t, svc.RecordUsage(ctx, "vision-y", "sess-1"))

	removed, err := svc.CleanupUsage(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	models, err := svc.ActiveModels(ctx)
	require.NoError(t, err)
	assert.NotContains(t, models, "gpt-x", "model with no sessions left is dropped")
	assert.Contains(t, models, "vision-y")
}

func TestPresenceService_CleanupUsage_Empty(t *testing.T) {
	svc := setupPresence(t)

	removed, err := svc.CleanupUsage(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
