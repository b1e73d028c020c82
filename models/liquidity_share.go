package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LiquidityShare is one provider's balance of fungible liquidity shares for
// a pool. The sum of all balances for a market always equals the pool's
// TotalShares; rows are removed when a balance is burned to zero.
type LiquidityShare struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_liquidity_shares_market_provider" json:"market_id"`
	ProviderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_liquidity_shares_market_provider" json:"provider_id"`
	Shares     decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"shares"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for LiquidityShare model
func (*LiquidityShare) TableName() string {
	return "liquidity_shares"
}

func (s *LiquidityShare) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Validate checks the share balance before persistence.
func (s *LiquidityShare) Validate() error {
	if s.Shares.IsNegative() {
		return ErrInvariantViolation
	}
	return nil
}
