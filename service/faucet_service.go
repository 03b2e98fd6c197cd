package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/internal/config"
	"github.com/ethcdm/faucet/internal/eth"
	"github.com/ethcdm/faucet/ports"
)

// Challenge prompt operand ranges. The sum stays below 40 so the puzzle
// is trivial for a human; the salt carries the secrecy, not the digest
// space.
const (
	operandAMin, operandAMax = 7, 19
	operandBMin, operandBMax = 6, 18
)

// FaucetService orchestrates challenge issuance and the claim workflow.
// Each claim request runs independently; the only shared state is the
// durable stores behind the ports.
type FaucetService struct {
	store     ports.ChallengeStore
	ledger    ports.ClaimLedger
	locker    ports.AddressLocker
	disburser ports.Disburser
	events    ports.EventPublisher
	reconcile ports.ReconciliationQueue
	cfg       *config.Config
	log       *zap.Logger

	now func() time.Time
}

// NewFaucetService creates the claim orchestrator.
func NewFaucetService(
	store ports.ChallengeStore,
	ledger ports.ClaimLedger,
	locker ports.AddressLocker,
	disburser ports.Disburser,
	events ports.EventPublisher,
	reconcile ports.ReconciliationQueue,
	cfg *config.Config,
	log *zap.Logger,
) *FaucetService {
	return &FaucetService{
		store:     store,
		ledger:    ledger,
		locker:    locker,
		disburser: disburser,
		events:    events,
		reconcile: reconcile,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// ChallengeResponse is returned to the client on challenge issuance.
// Message is the exact string the wallet must sign.
type ChallengeResponse struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// ClaimRequest carries one claim attempt through the workflow.
type ClaimRequest struct {
	Address     string
	Signature   string
	ChallengeID string
	Answer      string
	Network     string // request key; empty means the configured default
	SourceIP    string
}

// ClaimResult is the successful outcome of a claim.
type ClaimResult struct {
	TxHash         string
	NextEligibleAt time.Time
}

// IssueChallenge generates an arithmetic challenge, persists its salted
// answer digest and returns the prompt plus the message to sign. The
// expected answer never leaves this method.
func (s *FaucetService) IssueChallenge(ctx context.Context) (*ChallengeResponse, error) {
	a := operandAMin + rand.IntN(operandAMax-operandAMin+1)
	b := operandBMin + rand.IntN(operandBMax-operandBMin+1)

	id := uuid.New().String()
	challenge := &core.Challenge{
		ID:           id,
		AnswerDigest: s.hashAnswer(strconv.Itoa(a + b)),
		ExpiresAt:    s.now().Add(s.cfg.ChallengeTTL),
	}

	if err := s.store.Put(ctx, challenge, s.cfg.ChallengeTTL); err != nil {
		return nil, fmt.Errorf("persisting challenge: %w", err)
	}

	return &ChallengeResponse{
		ID:      id,
		Text:    fmt.Sprintf("What is %d + %d?", a, b),
		Message: s.SignableMessage(id),
	}, nil
}

// SignableMessage builds the deterministic message a claimant signs for
// a given challenge id.
func (s *FaucetService) SignableMessage(challengeID string) string {
	return fmt.Sprintf("%s\nChallenge ID: %s", s.cfg.ServiceName, challengeID)
}

// Claim runs the full claim workflow: validation, challenge and
// signature checks, per-address reservation, cooldown, disbursement and
// ledger commit. Every terminal failure maps to a sentinel in core.
func (s *FaucetService) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	networkKey := req.Network
	if networkKey == "" {
		networkKey = s.cfg.DefaultNetwork
	}
	network, err := s.cfg.Network(networkKey)
	if err != nil {
		return nil, err
	}

	if !common.IsHexAddress(req.Address) {
		return nil, core.ErrInvalidAddress
	}
	claimant := common.HexToAddress(req.Address)

	challenge, err := s.store.Get(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	if challenge.Expired(s.now()) {
		return nil, core.ErrChallengeExpired
	}

	// A wrong answer keeps the challenge alive for the rest of its TTL.
	// The digest is compared in constant time even though the answer
	// space is tiny; the salt is the secret being protected.
	submitted := s.hashAnswer(req.Answer)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(challenge.AnswerDigest)) != 1 {
		return nil, core.ErrWrongAnswer
	}

	if err := eth.VerifyOwnership(s.SignableMessage(challenge.ID), req.Signature, req.Address); err != nil {
		return nil, err
	}

	// The reservation closes the read-then-write race on the cooldown
	// check: between here and Release, no other request may read the
	// ledger for this address and reach disbursement.
	acquired, err := s.locker.Acquire(ctx, claimant.Hex(), s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, core.ErrClaimInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), claimant.Hex()); err != nil {
			s.log.Warn("failed to release address reservation",
				zap.String("address", claimant.Hex()), zap.Error(err))
		}
	}()

	eligibility, err := s.CheckEligibility(ctx, claimant.Hex())
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, &core.CooldownError{
			NextEligibleAt: eligibility.NextEligibleAt,
			HoursLeft:      eligibility.HoursLeft,
			LastTxHash:     eligibility.LastTxHash,
		}
	}

	disburseCtx, cancel := context.WithTimeout(ctx, s.cfg.DisburseTimeout)
	defer cancel()
	txHash, err := s.disburser.Disburse(disburseCtx, network, claimant)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claim := &core.Claim{
		Address:        claimant.Hex(),
		Network:        network.ID,
		Amount:         network.Amount,
		TxHash:         txHash,
		SourceIP:       req.SourceIP,
		NextEligibleAt: now.Add(s.cfg.CooldownWindow),
		CreatedAt:      now,
	}

	// Consume the challenge before the ledger write so a ledger failure
	// cannot be replayed with the same challenge.
	if err := s.store.Delete(ctx, challenge.ID); err != nil {
		s.log.Warn("failed to delete consumed challenge",
			zap.String("challenge_id", challenge.ID), zap.Error(err))
	}

	if err := s.ledger.Record(ctx, claim); err != nil {
		// Funds have already moved. Flag for manual reconciliation;
		// retrying the transfer would risk a double disbursement.
		s.flagForReconciliation(ctx, claim, err)
		return nil, fmt.Errorf("%w: %v", core.ErrLedgerWrite, err)
	}

	if err := s.events.PublishClaim(ctx, claim); err != nil {
		s.log.Warn("failed to publish claim event",
			zap.String("tx_hash", txHash), zap.Error(err))
	}

	s.log.Info("disbursement completed",
		zap.String("address", claim.Address),
		zap.String("network", string(claim.Network)),
		zap.String("tx_hash", txHash))

	return &ClaimResult{
		TxHash:         txHash,
		NextEligibleAt: claim.NextEligibleAt,
	}, nil
}

// CheckEligibility recomputes the cooldown for an address from the
// wall-clock creation time of its last claim. The stored next_eligible_at
// is informational only, so repeated denials cannot accumulate skew.
func (s *FaucetService) CheckEligibility(ctx context.Context, address string) (core.Eligibility, error) {
	last, err := s.ledger.LastClaim(ctx, address)
	if err != nil {
		return core.Eligibility{}, err
	}
	if last == nil {
		return core.Eligibility{Eligible: true}, nil
	}

	now := s.now()
	nextEligibleAt := last.CreatedAt.Add(s.cfg.CooldownWindow)
	if !now.Before(nextEligibleAt) {
		return core.Eligibility{Eligible: true}, nil
	}

	remaining := nextEligibleAt.Sub(now)
	hoursLeft := int((remaining + time.Hour - 1) / time.Hour)
	return core.Eligibility{
		Eligible:       false,
		NextEligibleAt: nextEligibleAt,
		HoursLeft:      hoursLeft,
		LastTxHash:     last.TxHash,
	}, nil
}

// PendingReconciliations drains the queue of disbursements awaiting
// manual accounting follow-up.
func (s *FaucetService) PendingReconciliations(ctx context.Context) ([]ports.ReconciliationEntry, error) {
	return s.reconcile.Drain(ctx)
}

func (s *FaucetService) flagForReconciliation(ctx context.Context, claim *core.Claim, cause error) {
	ctx = context.WithoutCancel(ctx)

	entry := ports.ReconciliationEntry{
		Address:   claim.Address,
		Network:   string(claim.Network),
		AmountWei: claim.Amount.String(),
		TxHash:    claim.TxHash,
		Cause:     cause.Error(),
		FlaggedAt: s.now(),
	}
	if err := s.reconcile.Push(ctx, entry); err != nil {
		s.log.Error("failed to queue reconciliation entry",
			zap.String("tx_hash", claim.TxHash), zap.Error(err))
	}
	if err := s.events.PublishReconciliation(ctx, claim, cause); err != nil {
		s.log.Error("failed to publish reconciliation event",
			zap.String("tx_hash", claim.TxHash), zap.Error(err))
	}

	s.log.Error("ledger write failed after disbursement, flagged for reconciliation",
		zap.String("address", claim.Address),
		zap.String("tx_hash", claim.TxHash),
		zap.Error(cause))
}

func (s *FaucetService) hashAnswer(answer string) string {
	sum := sha256.Sum256([]byte(answer + s.cfg.AnswerSalt))
	return hex.EncodeToString(sum[:])
}
