package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStorage instance
func setupTestRedis(t *testing.T, session string) (*RedisStorage, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	s := NewRedisStorage(client, session)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return s, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, "sess1")
	defer cleanup()

	require.NoError(t, mr.Set("storefront:sess1:cart", `[{"id":"p1","quantity":2}]`))

	got, err := s.Get(context.Background(), "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","quantity":2}]`, string(got))
}

func TestRedisGet_Miss(t *testing.T) {
	s, _, cleanup := setupTestRedis(t, "sess1")
	defer cleanup()

	got, err := s.Get(context.Background(), "favorites")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestRedisSet_NoExpiry(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, "sess1")
	defer cleanup()

	require.NoError(t, s.Set(context.Background(), "favorites", []byte(`[{"id":"p2"}]`)))

	stored, err := mr.Get("storefront:sess1:favorites")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p2"}]`, stored)
	assert.Zero(t, mr.TTL("storefront:sess1:favorites"))
}

func TestRedisDelete(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, "sess1")
	defer cleanup()

	require.NoError(t, mr.Set("storefront:sess1:cart", `[]`))
	assert.True(t, mr.Exists("storefront:sess1:cart"))

	require.NoError(t, s.Delete(context.Background(), "cart"))
	assert.False(t, mr.Exists("storefront:sess1:cart"))

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(context.Background(), "cart"))
}

func TestRedis_SessionsAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewRedisStorage(client, "a")
	b := NewRedisStorage(client, "b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "cart", []byte(`[1]`)))
	_, err := b.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_ConnectionError(t *testing.T) {
	s, mr, cleanup := setupTestRedis(t, "sess1")
	defer cleanup()
	mr.Close()

	_, err := s.Get(context.Background(), "cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, closeFn, err := Open(context.Background(), Config{Driver: DriverRedis, RedisAddr: mr.Addr(), Session: "x"})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, s.Set(context.Background(), "cart", []byte(`[]`)))
	assert.True(t, mr.Exists("storefront:x:cart"))
}
