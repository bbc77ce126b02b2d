package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return mr, c
}

func TestRedisCache_SetGet(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "key", entry{Title: "Test", Count: 2}, time.Minute)

	var got entry
	require.True(t, c.Get(ctx, "key", &got))
	assert.Equal(t, entry{Title: "Test", Count: 2}, got)
	assert.Equal(t, Stats{Hits: 1, Sets: 1}, c.Stats())
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t)

	var got entry
	assert.False(t, c.Get(context.Background(), "nonexistent", &got))
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_Expiration(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "key", entry{Title: "Test"}, time.Minute)
	mr.FastForward(2 * time.Minute)

	var got entry
	assert.False(t, c.Get(ctx, "key", &got))
}

func TestRedisCache_CorruptValue(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, mr.Set("key", "not json"))

	var got entry
	assert.False(t, c.Get(context.Background(), "key", &got))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	var got entry
	assert.False(t, c.Get(context.Background(), "key", &got))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	k1 := Key("https://example.com/watch?v=1")
	k2 := Key("https://example.com/watch?v=2")

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, Key("https://example.com/watch?v=1"))
	assert.Len(t, k1, len(keyPrefix)+64)
}
