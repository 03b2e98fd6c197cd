package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

// RedisLocker implements the per-address reservation with SET NX PX.
// The TTL is the safety net: if the holder dies mid-claim, Redis frees
// the address on its own.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a Redis-backed address locker.
func NewRedisLocker(client *redis.Client) ports.AddressLocker {
	return &RedisLocker{
		client: client,
		prefix: "faucet:reservation:",
	}
}

// Acquire takes the reservation for address if it is free.
func (l *RedisLocker) Acquire(ctx context.Context, address string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+address, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring reservation: %w", core.ErrStoreOperation)
	}
	return ok, nil
}

// Release frees the reservation.
func (l *RedisLocker) Release(ctx context.Context, address string) error {
	if err := l.client.Del(ctx, l.prefix+address).Err(); err != nil {
		return fmt.Errorf("releasing reservation: %w", core.ErrStoreOperation)
	}
	return nil
}
