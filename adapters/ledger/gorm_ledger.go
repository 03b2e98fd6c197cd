package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

// ClaimRow is the persisted form of a claim. Amount is numeric(78,0)
// so the full uint256 wei range fits without loss.
type ClaimRow struct {
	ID             uint            `gorm:"primaryKey"`
	Address        string          `gorm:"index:idx_claims_address_created_at,priority:1"`
	Network        string          `gorm:"index"`
	Amount         decimal.Decimal `gorm:"type:numeric(78,0)"`
	TxHash         string
	SourceIP       string
	NextEligibleAt time.Time
	CreatedAt      time.Time `gorm:"index:idx_claims_address_created_at,priority:2"`
}

// TableName pins the table name independent of gorm pluralization rules.
func (ClaimRow) TableName() string {
	return "claims"
}

// GormLedger is the database-backed claim ledger.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger migrates the claims schema and returns the ledger.
func NewGormLedger(db *gorm.DB) (*GormLedger, error) {
	if err := db.AutoMigrate(&ClaimRow{}); err != nil {
		return nil, fmt.Errorf("migrating claims schema: %w", err)
	}
	return &GormLedger{db: db}, nil
}

var _ ports.ClaimLedger = (*GormLedger)(nil)

// LastClaim returns the most recent claim for an address, or nil when
// the address has never claimed.
func (l *GormLedger) LastClaim(ctx context.Context, address string) (*core.Claim, error) {
	var row ClaimRow
	err := l.db.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying last claim: %w", err)
	}

	return rowToClaim(&row), nil
}

// Record inserts a claim row.
func (l *GormLedger) Record(ctx context.Context, claim *core.Claim) error {
	row := ClaimRow{
		Address:        claim.Address,
		Network:        string(claim.Network),
		Amount:         decimal.NewFromBigInt(claim.Amount, 0),
		TxHash:         claim.TxHash,
		SourceIP:       claim.SourceIP,
		NextEligibleAt: claim.NextEligibleAt,
		CreatedAt:      claim.CreatedAt,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting claim: %w", err)
	}
	return nil
}

// Totals returns per-network claim counts and disbursed sums.
func (l *GormLedger) Totals(ctx context.Context) ([]ports.NetworkTotal, error) {
	var rows []struct {
		Network  string
		Claims   int64
		TotalWei decimal.Decimal
	}
	err := l.db.WithContext(ctx).
		Model(&ClaimRow{}).
		Select("network, COUNT(*) AS claims, SUM(amount) AS total_wei").
		Group("network").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating claims: %w", err)
	}

	totals := make([]ports.NetworkTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, ports.NetworkTotal{
			Network:  core.NetworkID(r.Network),
			Claims:   r.Claims,
			TotalWei: r.TotalWei,
		})
	}
	return totals, nil
}

func rowToClaim(row *ClaimRow) *core.Claim {
	return &core.Claim{
		Address:        row.Address,
		Network:        core.NetworkID(row.Network),
		Amount:         row.Amount.BigInt(),
		TxHash:         row.TxHash,
		SourceIP:       row.SourceIP,
		NextEligibleAt: row.NextEligibleAt,
		CreatedAt:      row.CreatedAt,
	}
}
