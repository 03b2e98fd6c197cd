package ports

import (
	"context"
	"time"

	"github.com/ethcdm/faucet/core"
)

// ChallengeStore persists short-lived proof-of-humanity challenges.
type ChallengeStore interface {
	// Put stores a challenge for ttl. The store is the sole keeper of
	// the answer digest; the plain answer is never persisted.
	Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error

	// Get retrieves a challenge by id. Missing or already-consumed ids
	// return core.ErrInvalidChallenge.
	Get(ctx context.Context, id string) (*core.Challenge, error)

	// Delete consumes a challenge. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
