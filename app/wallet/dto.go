package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"github.com/shopspring/decimal"
)

// DepositRequest credits on-ramp funds to the caller's wallet.
type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"max=128"`
}

// BalanceResponse reports a principal's settlement-token balance.
type BalanceResponse struct {
	OwnerID uuid.UUID       `json:"owner_id"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionResponse is one wallet ledger entry.
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reference     string          `json:"reference,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ToTransactionResponse(t *models.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Reference:     t.Reference,
		CreatedAt:     t.CreatedAt,
	}
}
