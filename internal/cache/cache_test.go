package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10)

	require.NoError(t, c.Set(ctx, "k", sample{Name: "fng", Value: 42}, time.Minute))

	var got sample
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, sample{Name: "fng", Value: 42}, got)

	var s string
	require.NoError(t, c.Set(ctx, "raw", "hello", time.Minute))
	require.NoError(t, c.Get(ctx, "raw", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	now = now.Add(2 * time.Minute)

	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", 1, time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "b", 2, time.Hour))
	now = now.Add(time.Second)

	var v int
	require.NoError(t, c.Get(ctx, "a", &v))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "c", 3, time.Hour))

	assert.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrMiss)
	assert.NoError(t, c.Get(ctx, "a", &v))
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10)
	calls := 0
	load := func(context.Context) ([]float64, error) {
		calls++
		return []float64{1, 2, 3}, nil
	}

	first, err := Fetch(ctx, c, "series", time.Minute, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, "series", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetch_NilStoreAndError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Fetch(ctx, nil, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(ctx, nil, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "fng:30", Key("fng", 30))
	assert.Equal(t, "price:BTC:1700000000", Key("price", "BTC", at))
}

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("COMPASS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COMPASS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedis(ctx, RedisConfig{Addr: addr, Prefix: "compass-test"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", sample{Name: "x", Value: 1.5}, time.Minute))
	var got sample
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 1.5, got.Value)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}
