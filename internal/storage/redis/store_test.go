package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
)

const testKey = "@RocketShoes:cart"

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func TestStore_Get_Success(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set(testKey, `[{"id":1}]`))

	got, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := setupTestRedis(t, 0)

	_, err := store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Get_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "redis get")
}

func TestStore_Set_NoExpiry(t *testing.T) {
	store, mr := setupTestRedis(t, 0)

	require.NoError(t, store.Set(context.Background(), testKey, []byte(`[]`)))

	val, err := mr.Get(testKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, val)
	assert.Equal(t, time.Duration(0), mr.TTL(testKey))
}

func TestStore_Set_WithTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 24*time.Hour)

	require.NoError(t, store.Set(context.Background(), testKey, []byte(`[]`)))
	assert.Equal(t, 24*time.Hour, mr.TTL(testKey))

	mr.FastForward(25 * time.Hour)
	_, err := store.Get(context.Background(), testKey)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Set_Overwrites(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, []byte(`[1]`)))
	require.NoError(t, store.Set(ctx, testKey, []byte(`[2]`)))

	val, err := mr.Get(testKey)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, val)
}

func TestStore_Ping(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
