package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pool is the per-market constant-product reserve pair, denominated in the
// settlement token's smallest unit. Both reserves stay strictly positive for
// the pool's lifetime. k = yes_reserve * no_reserve never decreases across
// buys; sells recompute the opposite reserve by flooring k / new_reserve, so
// k may shrink there by at most the rounding remainder. Trading fees are
// routed to the fee sink, not retained in the reserves.
type Pool struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"market_id"`
	YesReserve decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"yes_reserve"`
	NoReserve  decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"no_reserve"`

	// Fungible liquidity-share supply for this pool.
	TotalShares decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"total_shares"`

	// Running totals of tokens ever contributed to each side. Monotonic;
	// resolution freezes these into the winner/loser payout totals.
	YesVolume decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"yes_volume"`
	NoVolume  decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"no_volume"`

	TradeCount int64 `gorm:"not null;default:0" json:"trade_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Pool model
func (*Pool) TableName() string {
	return "pools"
}

func (p *Pool) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Validate checks the reserve pair before persistence.
func (p *Pool) Validate() error {
	if p.YesReserve.IsNegative() || p.NoReserve.IsNegative() {
		return ErrInvariantViolation
	}
	return nil
}

// TotalLiquidity returns yes_reserve + no_reserve.
func (p *Pool) TotalLiquidity() decimal.Decimal {
	return p.YesReserve.Add(p.NoReserve)
}
