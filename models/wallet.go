package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is a principal's settlement-token balance. Market escrow and the
// protocol fee sink are wallets too, owned by well-known system principals.
type Wallet struct {
	ID      uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OwnerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Balance decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0;check:balance >= 0" json:"balance"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Transactions []Transaction `gorm:"foreignKey:WalletID" json:"-"`
}

// TableName specifies the table name for Wallet model
func (*Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Validate checks the wallet before persistence.
func (w *Wallet) Validate() error {
	if w.Balance.IsNegative() {
		return ErrInvariantViolation
	}
	return nil
}

// CanDebit checks if the wallet covers a debit of amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Debit removes amount from the balance.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !w.CanDebit(amount) {
		return ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}
