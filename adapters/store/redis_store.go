package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

// RedisStore keeps challenges in Redis under a TTL'd key, so expired
// challenges vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed challenge store.
func NewRedisStore(client *redis.Client) ports.ChallengeStore {
	return &RedisStore{
		client: client,
		prefix: "faucet:challenge:",
	}
}

type challengeRecord struct {
	AnswerDigest string    `json:"answer_digest"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Put stores a challenge with the given TTL.
func (s *RedisStore) Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(challengeRecord{
		AnswerDigest: challenge.AnswerDigest,
		ExpiresAt:    challenge.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling challenge: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+challenge.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("storing challenge: %w", core.ErrStoreOperation)
	}
	return nil
}

// Get retrieves a challenge by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*core.Challenge, error) {
	val, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrInvalidChallenge
		}
		return nil, fmt.Errorf("fetching challenge: %w", core.ErrStoreOperation)
	}

	var rec challengeRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge: %w", err)
	}

	return &core.Challenge{
		ID:           id,
		AnswerDigest: rec.AnswerDigest,
		ExpiresAt:    rec.ExpiresAt,
	}, nil
}

// Delete consumes a challenge.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("deleting challenge: %w", core.ErrStoreOperation)
	}
	return nil
}
