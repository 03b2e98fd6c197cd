package ports

import (
	"context"

	"github.com/ethcdm/faucet/core"
)

// EventPublisher notifies downstream consumers about disbursements.
// Publishing is best-effort: a publish failure never fails the claim.
type EventPublisher interface {
	// PublishClaim announces a successfully recorded disbursement.
	PublishClaim(ctx context.Context, claim *core.Claim) error

	// PublishReconciliation flags a disbursement whose ledger write
	// failed after funds had already moved. These must be resolved by
	// an operator; they are never retried automatically.
	PublishReconciliation(ctx context.Context, claim *core.Claim, cause error) error
}
