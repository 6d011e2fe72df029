package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return mr, c
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	_, c := setupRedis(t)

	data, hit, err := c.Get(ctx, "artifact:missing")
	require.NoError(t, err, "a miss is not an error")
	assert.False(t, hit)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "artifact:a", []byte("%PDF-1.3"), time.Hour))
	data, hit, err = c.Get(ctx, "artifact:a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("%PDF-1.3"), data)

	require.NoError(t, c.Delete(ctx, "artifact:a"))
	_, hit, err = c.Get(ctx, "artifact:a")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	require.NoError(t, c.Set(ctx, "artifact:ttl", []byte("x"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("artifact:ttl"))

	mr.FastForward(2 * time.Minute)
	_, hit, err := c.Get(ctx, "artifact:ttl")
	require.NoError(t, err)
	assert.False(t, hit, "expired entry should miss")
}

func TestRedisCacheServerError(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	mr.SetError("ERR server unavailable")
	_, hit, err := c.Get(ctx, "artifact:a")
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "connect to redis")
}

func TestRedisCacheFromClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Zero(t, mr.TTL("k"), "zero ttl stores without expiry")
}
