package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry, err := store.Create(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, entry.Status)
	assert.False(t, entry.CreatedAt.IsZero())

	// Duplicate create fails
	_, err = store.Create(ctx, "t-1")
	assert.Error(t, err)

	// Status transitions
	require.NoError(t, store.SetStatus(ctx, "t-1", StatusRunning))
	got, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	// CAS succeeds only from the expected status
	swapped, err := store.CompareAndSetStatus(ctx, "t-1", StatusTryCancel, StatusReady)
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = store.CompareAndSetStatus(ctx, "t-1", StatusRunning, StatusTryCancel)
	require.NoError(t, err)
	assert.True(t, swapped)

	got, err = store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusTryCancel, got.Status)

	// Delete
	require.NoError(t, store.Delete(ctx, "t-1"))
	_, err = store.Get(ctx, "t-1")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestMemoryStoreUnknownThread(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	err = store.SetStatus(ctx, "missing", StatusReady)
	assert.ErrorIs(t, err, ErrThreadNotFound)

	_, err = store.CompareAndSetStatus(ctx, "missing", StatusReady, StatusRunning)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestMemoryStoreConcurrentCAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := store.Create(ctx, "t-1")
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "t-1", StatusTryCancel))

	// Only one of N concurrent swaps may win.
	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			swapped, err := store.CompareAndSetStatus(ctx, "t-1", StatusTryCancel, StatusReady)
			if err == nil && swapped {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}
