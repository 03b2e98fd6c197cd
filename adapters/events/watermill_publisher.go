package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

const (
	// ClaimTopic carries every successfully recorded disbursement.
	ClaimTopic = "faucet.claims"

	// ReconcileTopic carries disbursements that moved funds but failed
	// to reach the ledger.
	ReconcileTopic = "faucet.reconcile"
)

// ClaimEvent is the published form of a disbursement.
type ClaimEvent struct {
	Address        string    `json:"address"`
	Network        string    `json:"network"`
	AmountWei      string    `json:"amount_wei"`
	TxHash         string    `json:"tx_hash"`
	NextEligibleAt time.Time `json:"next_eligible_at"`
	CreatedAt      time.Time `json:"created_at"`
	Cause          string    `json:"cause,omitempty"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishClaim announces a successfully recorded disbursement.
func (p *WatermillPublisher) PublishClaim(ctx context.Context, claim *core.Claim) error {
	return p.publish(ClaimTopic, claim, "")
}

// PublishReconciliation flags a disbursement whose ledger write failed.
func (p *WatermillPublisher) PublishReconciliation(ctx context.Context, claim *core.Claim, cause error) error {
	return p.publish(ReconcileTopic, claim, cause.Error())
}

func (p *WatermillPublisher) publish(topic string, claim *core.Claim, cause string) error {
	event := ClaimEvent{
		Address:        claim.Address,
		Network:        string(claim.Network),
		AmountWei:      claim.Amount.String(),
		TxHash:         claim.TxHash,
		NextEligibleAt: claim.NextEligibleAt,
		CreatedAt:      claim.CreatedAt,
		Cause:          cause,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
