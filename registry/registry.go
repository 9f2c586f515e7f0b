// Package registry tracks streaming agent threads and their cancellation
// status. The store is injected into the agent by the session layer; the
// agent only reads and conditionally rewrites the status field.
//
// Cancellation is cooperative: a caller marks a thread "try_cancel", the
// running agent observes the mark between node completions, acknowledges
// it and resets the thread to "ready".
package registry

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a thread.
type Status string

const (
	// StatusReady means the thread is idle and may accept a run.
	StatusReady Status = "ready"
	// StatusRunning means a streaming run is in progress.
	StatusRunning Status = "running"
	// StatusTryCancel asks the running agent to stop at the next
	// node boundary.
	StatusTryCancel Status = "try_cancel"
)

// ErrThreadNotFound is returned when a thread id has no registry entry.
var ErrThreadNotFound = errors.New("thread not found")

// Entry is one registered thread.
type Entry struct {
	ThreadID  string    `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
}

// Store is a lock-protected thread table. Implementations guarantee that
// CompareAndSetStatus is atomic; the agent relies on it when acknowledging
// a cancellation request.
type Store interface {
	// Create registers a thread in the "ready" state.
	Create(ctx context.Context, threadID string) (*Entry, error)

	// Get returns the entry for a thread.
	Get(ctx context.Context, threadID string) (*Entry, error)

	// SetStatus unconditionally rewrites a thread's status.
	SetStatus(ctx context.Context, threadID string, status Status) error

	// CompareAndSetStatus rewrites the status only if it currently equals
	// from. It reports whether the swap happened.
	CompareAndSetStatus(ctx context.Context, threadID string, from, to Status) (bool, error)

	// Delete removes a thread.
	Delete(ctx context.Context, threadID string) error
}
