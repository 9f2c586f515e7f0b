package registry

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return NewRedisStore(RedisOptions{Addr: mr.Addr()})
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	entry, err := store.Create(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, entry.Status)

	_, err = store.Create(ctx, "t-1")
	assert.Error(t, err)

	require.NoError(t, store.SetStatus(ctx, "t-1", StatusTryCancel))

	got, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusTryCancel, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	swapped, err := store.CompareAndSetStatus(ctx, "t-1", StatusRunning, StatusReady)
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = store.CompareAndSetStatus(ctx, "t-1", StatusTryCancel, StatusReady)
	require.NoError(t, err)
	assert.True(t, swapped)

	got, err = store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)

	require.NoError(t, store.Delete(ctx, "t-1"))
	_, err = store.Get(ctx, "t-1")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestRedisStoreUnknownThread(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	err = store.SetStatus(ctx, "missing", StatusReady)
	assert.ErrorIs(t, err, ErrThreadNotFound)

	_, err = store.CompareAndSetStatus(ctx, "missing", StatusReady, StatusRunning)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}
