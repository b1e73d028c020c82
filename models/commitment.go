package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commitment escrows a committed stake before market close without revealing
// the chosen outcome. The hash binds user, outcome, amount, and salt; the
// reveal step checks the reconstruction and converts the escrow into a
// position. One commitment per (market, user).
type Commitment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MarketID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commitments_market_user" json:"market_id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commitments_market_user" json:"user_id"`
	CommitHash string          `gorm:"type:char(64);not null" json:"commit_hash"`
	Amount     decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"amount"`

	Revealed   bool       `gorm:"not null;default:false" json:"revealed"`
	RevealedAt *time.Time `json:"revealed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Market *Market `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Commitment model
func (*Commitment) TableName() string {
	return "commitments"
}

func (c *Commitment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Validate checks the commitment before persistence.
func (c *Commitment) Validate() error {
	if len(c.CommitHash) != 64 {
		return ErrInvalidCommitHash
	}
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
