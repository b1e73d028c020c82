package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType classifies wallet ledger entries.
type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypePoolCreate      TransactionType = "pool_create"
	TransactionTypeBuy             TransactionType = "buy"
	TransactionTypeSell            TransactionType = "sell"
	TransactionTypeAddLiquidity    TransactionType = "add_liquidity"
	TransactionTypeRemoveLiquidity TransactionType = "remove_liquidity"
	TransactionTypeCommit          TransactionType = "commit"
	TransactionTypeClaim           TransactionType = "claim"
	TransactionTypeFee             TransactionType = "fee"
)

// Transaction is the audit trail for a single wallet mutation. Amount is
// signed: positive for credits, negative for debits.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	WalletID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Type          TransactionType `gorm:"type:varchar(32);not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"balance_after"`
	Reference     string          `gorm:"type:varchar(128)" json:"reference,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Wallet *Wallet `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Transaction model
func (*Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Validate checks the ledger entry before persistence.
func (t *Transaction) Validate() error {
	if t.Type == "" {
		return ErrInvalidAmount
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}
