package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_MemoryFallback(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute, nullLogger())
	assert.Equal(t, "memory", cache.Backend())

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	v, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := cache.Metrics()
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(2), m.Misses)
	assert.InDelta(t, 33.33, m.HitRate, 0.01)
}

func TestCacheService_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute, nullLogger())

	require.NoError(t, cache.SetWithTTL(ctx, "short", "v", time.Millisecond))
	require.NoError(t, cache.SetWithTTL(ctx, "forever", "v", 0))
	time.Sleep(5 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, "forever")
	assert.NoError(t, err)

	require.NoError(t, cache.Clear(ctx))
	_, err = cache.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheService_JSON(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute, nullLogger())

	type payload struct {
		UF    string `json:"uf"`
		Total int    `json:"total"`
	}
	require.NoError(t, cache.SetJSON(ctx, "p", payload{UF: "SP", Total: 3}, time.Minute))

	var got payload
	require.NoError(t, cache.GetJSON(ctx, "p", &got))
	assert.Equal(t, payload{UF: "SP", Total: 3}, got)

	require.NoError(t, cache.Set(ctx, "bad", "{"))
	assert.Error(t, cache.GetJSON(ctx, "bad", &got))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"available": false}, stats["redis"])
	assert.Equal(t, "disabled", cache.Health()["redis"].(map[string]interface{})["status"])
}
