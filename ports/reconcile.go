package ports

import (
	"context"
	"time"
)

// ReconciliationEntry describes a disbursement whose ledger write
// failed after funds had already moved.
type ReconciliationEntry struct {
	Address   string    `json:"address"`
	Network   string    `json:"network"`
	AmountWei string    `json:"amount_wei"`
	TxHash    string    `json:"tx_hash"`
	Cause     string    `json:"cause"`
	FlaggedAt time.Time `json:"flagged_at"`
}

// ReconciliationQueue holds flagged disbursements until an operator
// drains them.
type ReconciliationQueue interface {
	Push(ctx context.Context, entry ReconciliationEntry) error

	// Drain returns all pending entries and removes them.
	Drain(ctx context.Context) ([]ReconciliationEntry, error)
}
