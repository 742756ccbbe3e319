package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(clockwork.NewFakeClock())
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "vods:a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "vods:a", []byte("payload"), time.Hour))

	data, ok, err := store.Get(ctx, "vods:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
}

func TestMemoryStore_EntriesExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "vods:a", []byte("payload"), 24*time.Hour))

	clock.Advance(24*time.Hour - time.Second)
	_, ok, err := store.Get(ctx, "vods:a")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok, err = store.Get(ctx, "vods:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_DeleteByPrefix(t *testing.T) {
	store := NewMemoryStore(clockwork.NewFakeClock())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "vods:a", []byte("a"), time.Hour))
	require.NoError(t, store.Set(ctx, "vods:b", []byte("b"), time.Hour))
	require.NoError(t, store.Set(ctx, "games:c", []byte("c"), time.Hour))

	require.NoError(t, store.DeleteByPrefix(ctx, "vods:"))

	_, ok, _ := store.Get(ctx, "vods:a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "vods:b")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "games:c")
	assert.True(t, ok)
}
