package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Position records what a user holds on one side of a market: outcome shares
// usable for selling back to the pool, and the token amount contributed to
// that side, which is the basis for the post-resolution claim. One row per
// (market, user, outcome).
//
// Claimed transitions false -> true exactly once and never reverts.
type Position struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_positions_market_user_outcome" json:"market_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_positions_market_user_outcome" json:"user_id"`
	Outcome  int16     `gorm:"type:smallint;not null;uniqueIndex:idx_positions_market_user_outcome" json:"outcome"`

	Shares decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"shares"`
	Amount decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"amount"`

	Claimed   bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Position model
func (*Position) TableName() string {
	return "positions"
}

func (p *Position) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Validate checks the position fields before persistence.
func (p *Position) Validate() error {
	if !ValidOutcome(p.Outcome) {
		return ErrInvalidOutcome
	}
	if p.Shares.IsNegative() || p.Amount.IsNegative() {
		return ErrInvariantViolation
	}
	return nil
}

// MarkClaimed consumes the claim. Calling it twice is a defect in the
// service layer, caught here.
func (p *Position) MarkClaimed(now time.Time) error {
	if p.Claimed {
		return ErrAlreadyClaimed
	}
	p.Claimed = true
	p.ClaimedAt = &now
	return nil
}
