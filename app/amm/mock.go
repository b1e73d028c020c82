package amm

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

func (m *MockRepository) GetMarketByRef(ctx context.Context, ref string) (*models.Market, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockRepository) CreatePool(ctx context.Context, pool *models.Pool) error {
	return m.Called(ctx, pool).Error(0)
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

func (m *MockRepository) GetLiquidityShare(ctx context.Context, marketID, providerID uuid.UUID) (*models.LiquidityShare, error) {
	args := m.Called(ctx, marketID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LiquidityShare), args.Error(1)
}

func (m *MockRepository) SaveLiquidityShare(ctx context.Context, share *models.LiquidityShare) error {
	return m.Called(ctx, share).Error(0)
}

func (m *MockRepository) DeleteLiquidityShare(ctx context.Context, share *models.LiquidityShare) error {
	return m.Called(ctx, share).Error(0)
}

func (m *MockRepository) WithTx(_ *gorm.DB) Repository {
	return m
}

// MockService is a testify mock of Service.
type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) CreatePool(ctx context.Context, creatorID uuid.UUID, req *CreatePoolRequest) (*PoolResponse, error) {
	args := m.Called(ctx, creatorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PoolResponse), args.Error(1)
}

func (m *MockService) Buy(ctx context.Context, traderID uuid.UUID, marketRef string, req *BuyRequest) (*TradeResponse, error) {
	args := m.Called(ctx, traderID, marketRef, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TradeResponse), args.Error(1)
}

func (m *MockService) Sell(ctx context.Context, traderID uuid.UUID, marketRef string, req *SellRequest) (*TradeResponse, error) {
	args := m.Called(ctx, traderID, marketRef, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TradeResponse), args.Error(1)
}

func (m *MockService) AddLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *AddLiquidityRequest) (*LiquidityResponse, error) {
	args := m.Called(ctx, providerID, marketRef, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LiquidityResponse), args.Error(1)
}

func (m *MockService) RemoveLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *RemoveLiquidityRequest) (*LiquidityResponse, error) {
	args := m.Called(ctx, providerID, marketRef, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LiquidityResponse), args.Error(1)
}

func (m *MockService) GetOdds(ctx context.Context, marketRef string) (*OddsResponse, error) {
	args := m.Called(ctx, marketRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OddsResponse), args.Error(1)
}

func (m *MockService) GetPool(ctx context.Context, marketRef string) (*PoolResponse, error) {
	args := m.Called(ctx, marketRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PoolResponse), args.Error(1)
}
