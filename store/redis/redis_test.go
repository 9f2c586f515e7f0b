package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/planexec/store"
	"github.com/stretchr/testify/assert"
)

func TestRedisCheckpointStore(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	cs := NewRedisCheckpointStore(RedisOptions{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	threadID := "thread-123"

	cp := &store.Checkpoint{
		ID:        "cp-1",
		ThreadID:  threadID,
		Phase:     "planner",
		State:     map[string]any{"input": "what is the capital of France"},
		Timestamp: time.Now(),
		Version:   1,
	}

	// Save
	err = cs.Save(ctx, cp)
	assert.NoError(t, err)

	// Load
	loaded, err := cs.Load(ctx, "cp-1")
	assert.NoError(t, err)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, cp.ThreadID, loaded.ThreadID)
	assert.Equal(t, cp.Phase, loaded.Phase)
	state, ok := loaded.State.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "what is the capital of France", state["input"])

	// List
	list, err := cs.List(ctx, threadID)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, cp.ID, list[0].ID)

	// Delete
	err = cs.Delete(ctx, "cp-1")
	assert.NoError(t, err)

	_, err = cs.Load(ctx, "cp-1")
	assert.Error(t, err)

	list, err = cs.List(ctx, threadID)
	assert.NoError(t, err)
	assert.Len(t, list, 0)

	// Clear
	cp2 := &store.Checkpoint{ID: "cp-2", ThreadID: threadID, Version: 2}
	cp3 := &store.Checkpoint{ID: "cp-3", ThreadID: threadID, Version: 3}
	cs.Save(ctx, cp2)
	cs.Save(ctx, cp3)

	list, err = cs.List(ctx, threadID)
	assert.NoError(t, err)
	assert.Len(t, list, 2)

	err = cs.Clear(ctx, threadID)
	assert.NoError(t, err)

	list, err = cs.List(ctx, threadID)
	assert.NoError(t, err)
	assert.Len(t, list, 0)
}

func TestRedisCheckpointStore_Latest(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	cs := NewRedisCheckpointStore(RedisOptions{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	threadID := "thread-latest"

	for _, cp := range []*store.Checkpoint{
		{ID: "cp-a", ThreadID: threadID, Phase: "planner", Version: 1},
		{ID: "cp-c", ThreadID: threadID, Phase: "answer_maker", Version: 3},
		{ID: "cp-b", ThreadID: threadID, Phase: "plan_executor", Version: 2},
	} {
		assert.NoError(t, cs.Save(ctx, cp))
	}

	latest, err := cs.Latest(ctx, threadID)
	assert.NoError(t, err)
	assert.Equal(t, "cp-c", latest.ID)
	assert.Equal(t, 3, latest.Version)

	_, err = cs.Latest(ctx, "no-such-thread")
	assert.Error(t, err)
}
