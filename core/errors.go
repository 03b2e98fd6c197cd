package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidChallenge   = errors.New("invalid challenge")
	ErrChallengeExpired   = errors.New("challenge has expired")
	ErrWrongAnswer        = errors.New("wrong challenge answer")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidAddress     = errors.New("invalid ethereum address")
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrClaimInProgress    = errors.New("a claim for this address is already in progress")
	ErrTransferFailed     = errors.New("transfer submission failed")
	ErrLedgerWrite        = errors.New("failed to record claim")
	ErrStoreOperation     = errors.New("store operation failed")
)

// CooldownError rejects a claim attempted inside the cooldown window.
// It carries the data the 429 response exposes for transparency.
type CooldownError struct {
	NextEligibleAt time.Time
	HoursLeft      int
	LastTxHash     string
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %d hours left, next eligible at %s",
		e.HoursLeft, e.NextEligibleAt.UTC().Format(time.RFC3339))
}
