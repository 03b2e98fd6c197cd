package lock

import (
	"context"
	"sync"
	"time"

	"github.com/ethcdm/faucet/ports"
)

// MemoryLocker is an in-memory address locker for tests. It honors the
// same expiry semantics as the Redis implementation.
type MemoryLocker struct {
	mu           sync.Mutex
	reservations map[string]time.Time
}

// NewMemoryLocker creates an in-memory address locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		reservations: make(map[string]time.Time),
	}
}

var _ ports.AddressLocker = (*MemoryLocker)(nil)

// Acquire takes the reservation for address if it is free or expired.
func (l *MemoryLocker) Acquire(ctx context.Context, address string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.reservations[address]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.reservations[address] = time.Now().Add(ttl)
	return true, nil
}

// Release frees the reservation.
func (l *MemoryLocker) Release(ctx context.Context, address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.reservations, address)
	return nil
}
