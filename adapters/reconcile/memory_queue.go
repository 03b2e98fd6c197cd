package reconcile

import (
	"context"
	"sync"

	"github.com/ethcdm/faucet/ports"
)

// MemoryQueue is an in-memory reconciliation queue for tests.
type MemoryQueue struct {
	mu      sync.Mutex
	entries []ports.ReconciliationEntry
}

// NewMemoryQueue creates an in-memory reconciliation queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

var _ ports.ReconciliationQueue = (*MemoryQueue)(nil)

// Push appends an entry to the queue.
func (q *MemoryQueue) Push(ctx context.Context, entry ports.ReconciliationEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, entry)
	return nil
}

// Drain returns all pending entries and removes them.
func (q *MemoryQueue) Drain(ctx context.Context) ([]ports.ReconciliationEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.entries
	q.entries = nil
	return entries, nil
}
