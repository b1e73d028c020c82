package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the fungible-token collaborator the settlement core moves funds
// through. Transfers are exactly-once within the database transaction they
// run in: if any leg fails, the whole calling operation aborts.
type Service interface {
	GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	Balance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)

	// Deposit credits external on-ramp funds to a principal's wallet.
	Deposit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, reference string) error

	// Transfer moves amount between two principals' wallets atomically,
	// recording a ledger entry for each side.
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, kind models.TransactionType, reference string) error

	Transactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error)

	// WithTx binds the service to an in-flight database transaction so a
	// calling operation can make its transfers part of its own atomicity.
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo Repository
	db   *gorm.DB
}

func NewService(repo Repository, db *gorm.DB) Service {
	return &service{repo: repo, db: db}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), db: tx}
}

func (s *service) GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	w, err := s.repo.GetWalletByOwner(ctx, ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	w = &models.Wallet{OwnerID: ownerID, Balance: decimal.Zero}
	if err := s.repo.CreateWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

func (s *service) Balance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	w, err := s.repo.GetWalletByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to load wallet: %w", err)
	}
	return w.Balance, nil
}

func (s *service) Deposit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, reference string) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		txSvc := s.WithTx(tx).(*service)

		w, err := txSvc.GetOrCreateWallet(ctx, ownerID)
		if err != nil {
			return err
		}
		return txSvc.credit(ctx, w, amount, models.TransactionTypeDeposit, reference)
	})
}

func (s *service) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, kind models.TransactionType, reference string) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if fromID == toID {
		return models.ErrInvalidAmount
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		txSvc := s.WithTx(tx).(*service)

		from, err := txSvc.repo.GetWalletByOwner(ctx, fromID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrInsufficientBalance
			}
			return fmt.Errorf("failed to load source wallet: %w", err)
		}

		to, err := txSvc.GetOrCreateWallet(ctx, toID)
		if err != nil {
			return err
		}

		if err := txSvc.debit(ctx, from, amount, kind, reference); err != nil {
			return err
		}
		return txSvc.credit(ctx, to, amount, kind, reference)
	})
}

func (s *service) Transactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	w, err := s.repo.GetWalletByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	return s.repo.GetWalletTransactions(ctx, w.ID, limit, offset)
}

func (s *service) debit(ctx context.Context, w *models.Wallet, amount decimal.Decimal, kind models.TransactionType, reference string) error {
	before := w.Balance
	if err := w.Debit(amount); err != nil {
		return err
	}
	if err := s.repo.UpdateWallet(ctx, w); err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return s.repo.CreateTransaction(ctx, &models.Transaction{
		WalletID:      w.ID,
		Type:          kind,
		Amount:        amount.Neg(),
		BalanceBefore: before,
		BalanceAfter:  w.Balance,
		Reference:     reference,
	})
}

func (s *service) credit(ctx context.Context, w *models.Wallet, amount decimal.Decimal, kind models.TransactionType, reference string) error {
	before := w.Balance
	if err := w.Credit(amount); err != nil {
		return err
	}
	if err := s.repo.UpdateWallet(ctx, w); err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return s.repo.CreateTransaction(ctx, &models.Transaction{
		WalletID:      w.ID,
		Type:          kind,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  w.Balance,
		Reference:     reference,
	})
}
