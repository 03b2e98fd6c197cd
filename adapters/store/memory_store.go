package store

import (
	"context"
	"sync"
	"time"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

// MemoryStore is an in-memory challenge store for tests.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]memoryEntry
}

type memoryEntry struct {
	challenge core.Challenge
	ttlExpiry time.Time
}

// NewMemoryStore creates an in-memory challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]memoryEntry),
	}
}

var _ ports.ChallengeStore = (*MemoryStore)(nil)

// Put stores a challenge with the given TTL.
func (s *MemoryStore) Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[challenge.ID] = memoryEntry{
		challenge: *challenge,
		ttlExpiry: time.Now().Add(ttl),
	}
	return nil
}

// Get retrieves a challenge by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.challenges[id]
	if !ok || time.Now().After(entry.ttlExpiry) {
		return nil, core.ErrInvalidChallenge
	}

	challenge := entry.challenge
	return &challenge, nil
}

// Delete consumes a challenge.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, id)
	return nil
}
