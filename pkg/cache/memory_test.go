package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Ticker string `json:"ticker"`
	Close  string `json:"close"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	require.NoError(t, mc.Set(ctx, "ohlc:BTC-USD:h1", []sample{{Ticker: "BTC-USD", Close: "42000.5"}}, time.Minute))

	got, err := GetTyped[[]sample](ctx, mc, "ohlc:BTC-USD:h1")
	require.NoError(t, err)
	assert.Equal(t, []sample{{Ticker: "BTC-USD", Close: "42000.5"}}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "value", 0))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "value", s)
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.ErrorIs(t, mc.Get(ctx, "short", &s), ErrCacheMiss)

	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	require.NoError(t, mc.Set(ctx, GenerateKeyWithParams("ohlc", "BTC-USD", "h1"), "a", 0))
	require.NoError(t, mc.Set(ctx, GenerateKeyWithParams("ohlc", "", "d1"), "b", 0))
	require.NoError(t, mc.Set(ctx, "settings:x", "c", 0))

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("ohlc")))

	assert.Equal(t, 1, mc.Len())
	ok, err := mc.Exists(ctx, "settings:x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	t.Cleanup(func() { _ = mc.Close() })

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	time.Sleep(time.Millisecond)

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	time.Sleep(time.Millisecond)

	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &s))
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "ohlc:BTC-USD:h1", GenerateKeyWithParams("ohlc", "BTC-USD", "h1"))
	assert.Equal(t, "ohlc:_:h1", GenerateKeyWithParams("ohlc", "", "h1"))
	assert.Equal(t, "ohlc:*", BuildPattern("ohlc"))
}
