package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/service"
)

// FaucetHandlers contains the HTTP handlers for the faucet endpoints.
type FaucetHandlers struct {
	faucet *service.FaucetService
	stats  *service.StatsService
}

// NewFaucetHandlers creates the handler set.
func NewFaucetHandlers(faucet *service.FaucetService, stats *service.StatsService) *FaucetHandlers {
	return &FaucetHandlers{
		faucet: faucet,
		stats:  stats,
	}
}

// Challenge issues a new proof-of-humanity challenge.
func (h *FaucetHandlers) Challenge(c *gin.Context) {
	resp, err := h.faucet.IssueChallenge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Claim runs the claim workflow for one request.
func (h *FaucetHandlers) Claim(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		CaptchaID string `json:"captchaId" binding:"required"`
		Answer    string `json:"answer" binding:"required"`
		Network   string `json:"network"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	result, err := h.faucet.Claim(c.Request.Context(), service.ClaimRequest{
		Address:     req.Address,
		Signature:   req.Signature,
		ChallengeID: req.CaptchaID,
		Answer:      req.Answer,
		Network:     req.Network,
		SourceIP:    c.ClientIP(),
	})
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"txHash":         result.TxHash,
		"nextEligibleAt": result.NextEligibleAt.UTC().Format(time.RFC3339),
	})
}

func (h *FaucetHandlers) writeClaimError(c *gin.Context, err error) {
	var cooldown *core.CooldownError
	if errors.As(err, &cooldown) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          cooldown.Error(),
			"nextEligibleAt": cooldown.NextEligibleAt.UTC().Format(time.RFC3339),
			"txHash":         cooldown.LastTxHash,
		})
		return
	}

	switch {
	case errors.Is(err, core.ErrClaimInProgress):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrUnsupportedNetwork),
		errors.Is(err, core.ErrInvalidAddress),
		errors.Is(err, core.ErrInvalidChallenge),
		errors.Is(err, core.ErrChallengeExpired),
		errors.Is(err, core.ErrWrongAnswer),
		errors.Is(err, core.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrLedgerWrite):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record claim"})
	case errors.Is(err, core.ErrTransferFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transfer submission failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected failure"})
	}
}

// Balances reports custodial funding per network.
func (h *FaucetHandlers) Balances(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Balances(c.Request.Context()))
}

// Stats reports historical claim totals per network.
func (h *FaucetHandlers) Stats(c *gin.Context) {
	report, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate stats"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Reconciliation drains and returns disbursements flagged for manual
// accounting follow-up.
func (h *FaucetHandlers) Reconciliation(c *gin.Context) {
	entries, err := h.faucet.PendingReconciliations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to drain reconciliation queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
