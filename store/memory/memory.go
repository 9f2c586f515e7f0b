// Package memory provides an in-process CheckpointStore backed by a map.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/planexec/store"
)

// MemoryCheckpointStore keeps checkpoints in process memory. Safe for
// concurrent use. Contents are lost when the process exits.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
	}
}

// Save stores a checkpoint, overwriting any existing checkpoint with the same ID.
func (s *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *checkpoint
	s.checkpoints[cp.ID] = &cp
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}

	out := *cp
	return &out, nil
}

// Latest returns the highest-version checkpoint for a thread.
func (s *MemoryCheckpointStore) Latest(_ context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *store.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.ThreadID != threadID {
			continue
		}
		if latest == nil || cp.Version > latest.Version {
			latest = cp
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no checkpoints for thread: %s", threadID)
	}

	out := *latest
	return &out, nil
}

// List returns all checkpoints for a thread, ordered by version ascending.
func (s *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var checkpoints []*store.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.ThreadID != threadID {
			continue
		}
		out := *cp
		checkpoints = append(checkpoints, &out)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Version < checkpoints[j].Version
	})

	return checkpoints, nil
}

// Delete removes a checkpoint. Deleting a missing checkpoint is a no-op.
func (s *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.checkpoints, checkpointID)
	return nil
}

// Clear removes all checkpoints for a thread.
func (s *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, cp := range s.checkpoints {
		if cp.ThreadID == threadID {
			delete(s.checkpoints, id)
		}
	}
	return nil
}
