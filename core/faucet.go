package core

import (
	"math/big"
	"time"
)

// NetworkID identifies a supported chain in claim records and requests.
type NetworkID string

const (
	NetworkArbitrum     NetworkID = "ARBITRUM"
	NetworkBase         NetworkID = "BASE"
	NetworkMonadTestnet NetworkID = "MONAD_TESTNET"
)

// Network holds the static per-chain configuration for disbursements.
// It is built once at startup and never mutated.
type Network struct {
	ID      NetworkID
	Name    string   // display name, e.g. "Arbitrum One"
	Symbol  string   // native currency symbol
	ChainID *big.Int // EIP-155 chain id used when signing
	RPCURL  string
	Amount  *big.Int // fixed disbursement amount in wei
}

// Challenge is a short-lived proof-of-humanity puzzle. Only the salted
// digest of the expected answer is stored; the answer itself never
// leaves the issuing request.
type Challenge struct {
	ID           string
	AnswerDigest string // hex sha256(answer + salt)
	ExpiresAt    time.Time
}

// Expired reports whether the challenge is past its validity window.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Claim is one successful disbursement. Rows are written exactly once
// and never updated.
type Claim struct {
	Address        string // checksummed claimant address
	Network        NetworkID
	Amount         *big.Int // wei
	TxHash         string
	SourceIP       string
	NextEligibleAt time.Time // informational; eligibility is recomputed from CreatedAt
	CreatedAt      time.Time
}

// Eligibility is the outcome of a cooldown check for an address.
type Eligibility struct {
	Eligible       bool
	NextEligibleAt time.Time
	HoursLeft      int // remaining cooldown rounded up to whole hours
	LastTxHash     string
}
