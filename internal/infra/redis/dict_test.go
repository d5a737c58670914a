package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-coordination-service/internal/domain"
)

func setupTestDict(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestDict_SetGet_RoundTrip(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[domain.Session](client, "sessions", zap.NewNop())

	sess := domain.NewSession("sess-1", "user-1")
	sess.IP = "10.0.0.1"

	require.NoError(t, d.Set(ctx, "sess-1", sess))

	got, err := d.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.IP, got.IP)
	assert.True(t, sess.ConnectedAt.Equal(got.ConnectedAt))
}

func TestDict_Get_KeyNotFound(t *testing.T) {
	_, client := setupTestDict(t)

	d := NewDict[string](client, "sessions", zap.NewNop())

	_, err := d.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDict_GetDefault(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[int](client, "counters", zap.NewNop())

	v, err := d.GetDefault(ctx, "missing", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	require.NoError(t, d.Set(ctx, "present", 7))
	v, err = d.GetDefault(ctx, "present", 42)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDict_Delete(t *testing.T) {
	// Scenario: set, get, delete, get raises key-not-found.
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[map[string]string](client, "sessions", zap.NewNop())

	require.NoError(t, d.Set(ctx, "u1", map[string]string{"name": "Ann"}))

	got, err := d.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got["name"])

	require.NoError(t, d.Delete(ctx, "u1"))

	_, err = d.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDict_Delete_KeyNotFound(t *testing.T) {
	_, client := setupTestDict(t)

	d := NewDict[string](client, "sessions", zap.NewNop())

	err := d.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDict_ContainsAndLen(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[string](client, "pool", zap.NewNop())

	ok, err := d.Contains(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Set(ctx, "a", "1"))
	require.NoError(t, d.Set(ctx, "b", "2"))

	ok, err = d.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := d.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDict_KeysValuesItems(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[int](client, "pool", zap.NewNop())

	require.NoError(t, d.Update(ctx, map[string]int{"a": 1, "b": 2, "c": 3}))

	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)

	values, err := d.Values(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, values)

	items, err := d.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, items)
}

func TestDict_SetDefault_IdempotentAfterFirstWrite(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[string](client, "pool", zap.NewNop())

	v, err := d.SetDefault(ctx, "k", "first")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	// A later default does not displace the stored value.
	v, err = d.SetDefault(ctx, "k", "second")
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestDict_Clear(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[int](client, "pool", zap.NewNop())

	require.NoError(t, d.Update(ctx, map[string]int{"a": 1, "b": 2}))
	require.NoError(t, d.Clear(ctx))

	n, err := d.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ok, err := d.Contains(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDict_DecodeError(t *testing.T) {
	mr, client := setupTestDict(t)
	ctx := context.Background()

	d := NewDict[domain.Session](client, "sessions", zap.NewNop())

	// Tampered value written outside the dict.
	mr.HSet("sessions", "bad", "{not json")

	_, err := d.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = d.Values(ctx)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = d.Items(ctx)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDict_NamesIsolate(t *testing.T) {
	_, client := setupTestDict(t)
	ctx := context.Background()

	a := NewDict[int](client, "pool:a", zap.NewNop())
	b := NewDict[int](client, "pool:b", zap.NewNop())

	require.NoError(t, a.Set(ctx, "k", 1))

	ok, err := b.Contains(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Same name means same backing hash, even across instances.
	a2 := NewDict[int](client, "pool:a", zap.NewNop())
	v, err := a2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
