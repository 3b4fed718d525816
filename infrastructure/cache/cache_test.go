package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetThenGetWithinTTL(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestTTLCache_GetExpiredEntryIsEvictedLazily(t *testing.T) {
	c := NewTTLCache()
	start := time.Now()
	c.now = func() time.Time { return start }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	c.now = func() time.Time { return start.Add(2 * time.Second) }

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	c.mu.Lock()
	_, stillPresent := c.entries["k"]
	c.mu.Unlock()
	assert.False(t, stillPresent)
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCache_SweepRemovesOnlyExpired(t *testing.T) {
	c := NewTTLCache()
	start := time.Now()
	c.now = func() time.Time { return start }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "expired", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "fresh", []byte("v"), time.Hour))

	evicted := c.Sweep(start.Add(2 * time.Second))
	assert.Equal(t, 1, evicted)

	_, ok, _ := c.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestGateCache_SetThenGetRoundTrips(t *testing.T) {
	backend := NewTTLCache()
	gc := NewGateCache(backend, time.Minute)
	ctx := context.Background()

	v := GateVerdict{Allowed: true, Reasons: nil}
	require.NoError(t, gc.Set(ctx, v))

	got, ok := gc.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, v, got)
}

func TestGateCache_GetMissingReturnsFalse(t *testing.T) {
	gc := NewGateCache(NewTTLCache(), time.Minute)
	_, ok := gc.Get(context.Background())
	assert.False(t, ok)
}

func TestDedupeSpillover_FirstSeenFalseThenTrue(t *testing.T) {
	d := NewDedupeSpillover(NewTTLCache(), time.Minute)
	ctx := context.Background()

	assert.False(t, d.Seen(ctx, "hash-1"))
	assert.True(t, d.Seen(ctx, "hash-1"))
}

func TestDedupeSpillover_DistinctHashesIndependent(t *testing.T) {
	d := NewDedupeSpillover(NewTTLCache(), time.Minute)
	ctx := context.Background()

	assert.False(t, d.Seen(ctx, "hash-a"))
	assert.False(t, d.Seen(ctx, "hash-b"))
}
