package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/models"
)

// MockRepository is a testify mock of Repository.
type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) CreateMarket(ctx context.Context, market *models.Market) error {
	return m.Called(ctx, market).Error(0)
}

func (m *MockRepository) GetMarketByRef(ctx context.Context, ref string) (*models.Market, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockRepository) UpdateMarket(ctx context.Context, market *models.Market) error {
	return m.Called(ctx, market).Error(0)
}

func (m *MockRepository) ListMarkets(ctx context.Context, status models.MarketStatus, limit, offset int) ([]models.Market, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Market), args.Error(1)
}

func (m *MockRepository) GetPoolByMarketID(ctx context.Context, marketID uuid.UUID) (*models.Pool, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pool), args.Error(1)
}

func (m *MockRepository) UpdatePool(ctx context.Context, pool *models.Pool) error {
	return m.Called(ctx, pool).Error(0)
}

func (m *MockRepository) GetUserPositions(ctx context.Context, marketID, userID uuid.UUID) ([]models.Position, error) {
	args := m.Called(ctx, marketID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Position), args.Error(1)
}

func (m *MockRepository) GetPosition(ctx context.Context, marketID, userID uuid.UUID, outcome int16) (*models.Position, error) {
	args := m.Called(ctx, marketID, userID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Position), args.Error(1)
}

func (m *MockRepository) SavePosition(ctx context.Context, position *models.Position) error {
	return m.Called(ctx, position).Error(0)
}

func (m *MockRepository) CreateCommitment(ctx context.Context, commitment *models.Commitment) error {
	return m.Called(ctx, commitment).Error(0)
}

func (m *MockRepository) GetCommitment(ctx context.Context, marketID, userID uuid.UUID) (*models.Commitment, error) {
	args := m.Called(ctx, marketID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commitment), args.Error(1)
}

func (m *MockRepository) UpdateCommitment(ctx context.Context, commitment *models.Commitment) error {
	return m.Called(ctx, commitment).Error(0)
}

func (m *MockRepository) WithTx(_ *gorm.DB) Repository {
	return m
}
