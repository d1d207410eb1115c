package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "", ttl), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t, time.Hour)

	err := cache.SetMany(ctx, map[string][]float32{
		"k1": {0.25, -1.5, 3},
		"k2": {1},
	})
	require.NoError(t, err)

	found, err := cache.GetMany(ctx, []string{"k1", "missing", "k2"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -1.5, 3}, found["k1"])
	assert.Equal(t, []float32{1}, found["k2"])
	_, ok := found["missing"]
	assert.False(t, ok)

	assert.True(t, mr.Exists(defaultRedisPrefix+"k1"))
	assert.Equal(t, time.Hour, mr.TTL(defaultRedisPrefix+"k1"))
}

func TestRedisCache_SkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t, 0)
	require.NoError(t, mr.Set(defaultRedisPrefix+"bad", "abc"))

	found, err := cache.GetMany(ctx, []string{"bad"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRedisCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t, 0)
	mr.Close()

	_, err := cache.GetMany(ctx, []string{"k"})
	assert.Error(t, err)
	assert.Error(t, cache.SetMany(ctx, map[string][]float32{"k": {1}}))
}

func TestRedisCache_BacksCachedProvider(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestRedisCache(t, time.Minute)
	inner := &countingProvider{}
	p := NewCachedProvider(inner, cache, nil, nil)

	require.True(t, p.EmbedBatch(ctx, []string{"alpha", "beta"}).OK())
	res := p.EmbedBatch(ctx, []string{"beta", "alpha"})
	require.True(t, res.OK())

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, [][]float32{{4, 1}, {5, 1}}, res.Vectors)
}

func TestNewRedisCacheFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := NewRedisCacheFromURL("redis://"+mr.Addr()+"/0", "custom:", 0)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	require.NoError(t, cache.SetMany(context.Background(), map[string][]float32{"x": {2}}))
	assert.True(t, mr.Exists("custom:x"))

	_, err = NewRedisCacheFromURL("::bad", "", 0)
	assert.Error(t, err)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, 1.25, -7, 3.4028235e38}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
