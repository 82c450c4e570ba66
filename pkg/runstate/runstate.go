// Package runstate stores the cooperative cancellation flags of in-flight runs.
package runstate

import (
	"context"
	"sync"
)

// CancellationStore records which runs were asked to stop. The executor checks
// it between node steps.
type CancellationStore interface {
	Cancel(ctx context.Context, runID string) error
	IsCancelled(ctx context.Context, runID string) (bool, error)
	// Clear drops the flag of a finished run.
	Clear(ctx context.Context, runID string) error
}

// MemoryStore keeps cancellation flags in process memory.
type MemoryStore struct {
	cancelled sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Cancel(_ context.Context, runID string) error {
	s.cancelled.Store(runID, struct{}{})

	return nil
}

func (s *MemoryStore) IsCancelled(_ context.Context, runID string) (bool, error) {
	_, ok := s.cancelled.Load(runID)

	return ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, runID string) error {
	s.cancelled.Delete(runID)

	return nil
}
