// Package store defines checkpoint persistence for plan-execute runs.
//
// A checkpoint is written after each phase of a run so that a thread can
// be inspected or resumed later. All backends implement the same
// CheckpointStore interface:
//   - memory: process-local map, useful for tests and single-process runs
//   - sqlite: file-based storage for development and desktop use
//   - postgres: relational storage for production deployments
//   - redis: in-memory storage with optional expiration
//
// Checkpoints are keyed by ID and indexed by thread, so a thread's full
// history can be listed oldest first, and the latest snapshot fetched
// directly for resumption.
package store
