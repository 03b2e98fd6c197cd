package ports

import (
	"context"
	"time"
)

// AddressLocker serializes claim processing per claimant address. It
// closes the check-then-act race between the eligibility read and the
// ledger write: only the holder of the reservation may disburse.
type AddressLocker interface {
	// Acquire takes the reservation for address, returning false if it
	// is already held. The reservation expires after ttl regardless of
	// Release, so a hung holder cannot pin the address forever.
	Acquire(ctx context.Context, address string, ttl time.Duration) (bool, error)

	// Release frees the reservation. Releasing an expired or absent
	// reservation is not an error.
	Release(ctx context.Context, address string) error
}
