// Package reconcile stores disbursements that need manual accounting
// follow-up after a ledger write failure.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

// RedisQueue keeps reconciliation entries in a Redis list until an
// operator drains them through the admin endpoint.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a Redis-backed reconciliation queue.
func NewRedisQueue(client *redis.Client) ports.ReconciliationQueue {
	return &RedisQueue{
		client: client,
		key:    "faucet:reconcile",
	}
}

// Push appends an entry to the queue.
func (q *RedisQueue) Push(ctx context.Context, entry ports.ReconciliationEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling reconciliation entry: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("queueing reconciliation entry: %w", core.ErrStoreOperation)
	}
	return nil
}

// Drain returns all pending entries and removes them atomically.
func (q *RedisQueue) Drain(ctx context.Context) ([]ports.ReconciliationEntry, error) {
	pipe := q.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, q.key, 0, -1)
	pipe.Del(ctx, q.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("draining reconciliation queue: %w", core.ErrStoreOperation)
	}

	raw := rangeCmd.Val()
	entries := make([]ports.ReconciliationEntry, 0, len(raw))
	for _, item := range raw {
		var entry ports.ReconciliationEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshaling reconciliation entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
