package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ethcdm/faucet/core"
)

// NetworkTotal aggregates historical disbursements for one network.
type NetworkTotal struct {
	Network  core.NetworkID
	Claims   int64
	TotalWei decimal.Decimal
}

// ClaimLedger durably records successful disbursements.
type ClaimLedger interface {
	// LastClaim returns the most recent claim for an address, or nil
	// when the address has never claimed.
	LastClaim(ctx context.Context, address string) (*core.Claim, error)

	// Record inserts a claim row. Rows are immutable once written.
	Record(ctx context.Context, claim *core.Claim) error

	// Totals returns per-network claim counts and disbursed sums.
	Totals(ctx context.Context) ([]NetworkTotal, error)
}
