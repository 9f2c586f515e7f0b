package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory thread store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Create registers a thread in the "ready" state.
func (s *MemoryStore) Create(ctx context.Context, threadID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[threadID]; exists {
		return nil, fmt.Errorf("thread already exists: %s", threadID)
	}
	entry := &Entry{
		ThreadID:  threadID,
		CreatedAt: time.Now(),
		Status:    StatusReady,
	}
	s.entries[threadID] = entry

	cp := *entry
	return &cp, nil
}

// Get returns the entry for a thread.
func (s *MemoryStore) Get(ctx context.Context, threadID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[threadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	cp := *entry
	return &cp, nil
}

// SetStatus unconditionally rewrites a thread's status.
func (s *MemoryStore) SetStatus(ctx context.Context, threadID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[threadID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	entry.Status = status
	return nil
}

// CompareAndSetStatus atomically swaps the status if it equals from.
func (s *MemoryStore) CompareAndSetStatus(ctx context.Context, threadID string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[threadID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	if entry.Status != from {
		return false, nil
	}
	entry.Status = to
	return true, nil
}

// Delete removes a thread.
func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, threadID)
	return nil
}
