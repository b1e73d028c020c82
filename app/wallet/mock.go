package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockService is a testify mock of the wallet Service, shared by the
// packages that move funds through it.
type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockService) Balance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockService) Deposit(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, reference string) error {
	args := m.Called(ctx, ownerID, amount, reference)
	return args.Error(0)
}

func (m *MockService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, kind models.TransactionType, reference string) error {
	args := m.Called(ctx, fromID, toID, amount, kind, reference)
	return args.Error(0)
}

func (m *MockService) Transactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockService) WithTx(_ *gorm.DB) Service {
	return m
}

// MockRepository is a testify mock of the wallet Repository.
type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockRepository) GetWalletByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockRepository) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockRepository) GetWalletTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockRepository) WithTx(_ *gorm.DB) Repository {
	return m
}
