package service

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/internal/config"
	"github.com/ethcdm/faucet/ports"
)

const weiDecimals = 18

// StatsService serves the read-only collaborator endpoints: custodial
// balances per network and historical claim totals. It never touches
// the claim workflow's invariants.
type StatsService struct {
	ledger   ports.ClaimLedger
	balances ports.BalanceReader
	cfg      *config.Config
	log      *zap.Logger

	now func() time.Time
}

// NewStatsService creates the read-side service.
func NewStatsService(ledger ports.ClaimLedger, balances ports.BalanceReader, cfg *config.Config, log *zap.Logger) *StatsService {
	return &StatsService{
		ledger:   ledger,
		balances: balances,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// NetworkBalance reports the custodial funding state of one network.
type NetworkBalance struct {
	Network              string          `json:"network"`
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Balance              string          `json:"balance"`
	BalanceFormatted     decimal.Decimal `json:"balanceFormatted"`
	ClaimAmount          string          `json:"claimAmount"`
	ClaimAmountFormatted decimal.Decimal `json:"claimAmountFormatted"`
	HasEnoughFunds       bool            `json:"hasEnoughFunds"`
	EstimatedClaims      int64           `json:"estimatedClaims"`
	Error                string          `json:"error,omitempty"`
}

// BalancesReport is the /api/balances payload.
type BalancesReport struct {
	FaucetAddress          string                    `json:"faucetAddress"`
	Networks               map[string]NetworkBalance `json:"networks"`
	TotalNetworksWithFunds int                       `json:"totalNetworksWithFunds"`
	HasAnyFunds            bool                      `json:"hasAnyFunds"`
	LastChecked            time.Time                 `json:"lastChecked"`
}

// Balances reads the custodial balance on every configured network and
// derives how many claims each can still fund. A single unreachable
// network degrades to an error entry instead of failing the report.
func (s *StatsService) Balances(ctx context.Context) *BalancesReport {
	report := &BalancesReport{
		FaucetAddress: s.cfg.FaucetAddress.Hex(),
		Networks:      make(map[string]NetworkBalance, len(s.cfg.Networks)),
		LastChecked:   s.now(),
	}

	for key, network := range s.cfg.Networks {
		entry := NetworkBalance{
			Network:              key,
			Name:                 network.Name,
			Symbol:               network.Symbol,
			Balance:              "0",
			ClaimAmount:          network.Amount.String(),
			ClaimAmountFormatted: decimal.NewFromBigInt(network.Amount, -weiDecimals),
		}

		balance, err := s.balances.Balance(ctx, network, s.cfg.FaucetAddress)
		if err != nil {
			s.log.Warn("balance check failed",
				zap.String("network", key), zap.Error(err))
			entry.Error = "error checking balance"
		} else {
			entry.Balance = balance.String()
			entry.BalanceFormatted = decimal.NewFromBigInt(balance, -weiDecimals)
			entry.HasEnoughFunds = balance.Cmp(network.Amount) >= 0
			entry.EstimatedClaims = new(big.Int).Div(balance, network.Amount).Int64()
			if entry.HasEnoughFunds {
				report.TotalNetworksWithFunds++
			}
		}

		report.Networks[key] = entry
	}

	report.HasAnyFunds = report.TotalNetworksWithFunds > 0
	return report
}

// NetworkStats aggregates historical disbursements for one network.
type NetworkStats struct {
	TotalClaims       int64           `json:"totalClaims"`
	TotalAmountNative decimal.Decimal `json:"totalAmountNative"`
	TotalAmountUSD    decimal.Decimal `json:"totalAmountUSD"`
	Symbol            string          `json:"symbol"`
}

// StatsReport is the /api/stats payload. USD totals use the statically
// configured spot prices.
type StatsReport struct {
	TotalClaims int64                   `json:"totalClaims"`
	Networks    map[string]NetworkStats `json:"networks"`
	PricesUSD   map[string]string       `json:"pricesUSD"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

// Stats aggregates the claim ledger per network.
func (s *StatsService) Stats(ctx context.Context) (*StatsReport, error) {
	totals, err := s.ledger.Totals(ctx)
	if err != nil {
		return nil, err
	}

	symbols := make(map[core.NetworkID]string, len(s.cfg.Networks))
	for _, network := range s.cfg.Networks {
		symbols[network.ID] = network.Symbol
	}

	report := &StatsReport{
		Networks:    make(map[string]NetworkStats, len(totals)),
		PricesUSD:   make(map[string]string, len(s.cfg.PricesUSD)),
		LastUpdated: s.now(),
	}
	for symbol, price := range s.cfg.PricesUSD {
		report.PricesUSD[symbol] = price.String()
	}

	for _, total := range totals {
		symbol := symbols[total.Network]
		native := total.TotalWei.Shift(-weiDecimals)
		report.Networks[string(total.Network)] = NetworkStats{
			TotalClaims:       total.Claims,
			TotalAmountNative: native,
			TotalAmountUSD:    native.Mul(s.cfg.PricesUSD[symbol]),
			Symbol:            symbol,
		}
		report.TotalClaims += total.Claims
	}

	return report, nil
}
