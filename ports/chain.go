package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethcdm/faucet/core"
)

// Disburser submits native-currency transfers from the custodial wallet.
type Disburser interface {
	// Disburse sends network.Amount to the recipient and returns the
	// transaction hash as soon as submission is acknowledged. It does
	// not wait for confirmation and never retries.
	Disburse(ctx context.Context, network core.Network, to common.Address) (string, error)
}

// BalanceReader reports the custodial balance on a network.
type BalanceReader interface {
	Balance(ctx context.Context, network core.Network, account common.Address) (*big.Int, error)
}
