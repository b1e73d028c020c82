package oracle

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

func (m *MockRepository) CreateOracle(ctx context.Context, oracle *models.Oracle) error {
	return m.Called(ctx, oracle).Error(0)
}

func (m *MockRepository) GetOracleByIdentity(ctx context.Context, identity uuid.UUID) (*models.Oracle, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Oracle), args.Error(1)
}

func (m *MockRepository) CountOracles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CreateVote(ctx context.Context, vote *models.OracleVote) error {
	return m.Called(ctx, vote).Error(0)
}

func (m *MockRepository) GetVote(ctx context.Context, marketID, oracleID uuid.UUID) (*models.OracleVote, error) {
	args := m.Called(ctx, marketID, oracleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OracleVote), args.Error(1)
}

func (m *MockRepository) CountVotes(ctx context.Context, marketID uuid.UUID, outcome int16) (int64, error) {
	args := m.Called(ctx, marketID, outcome)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CreateDecision(ctx context.Context, decision *models.ConsensusDecision) error {
	return m.Called(ctx, decision).Error(0)
}

func (m *MockRepository) GetDecision(ctx context.Context, marketID uuid.UUID) (*models.ConsensusDecision, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsensusDecision), args.Error(1)
}

func (m *MockRepository) WithTx(_ *gorm.DB) Repository {
	return m
}

// MockService is a testify mock of Service. Settlement uses it as the
// consensus source when resolving markets.
type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) RegisterOracle(ctx context.Context, callerID uuid.UUID, req *RegisterOracleRequest) (*OracleResponse, error) {
	args := m.Called(ctx, callerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OracleResponse), args.Error(1)
}

func (m *MockService) SubmitVote(ctx context.Context, callerID uuid.UUID, marketRef string, req *VoteRequest) (*VoteResponse, error) {
	args := m.Called(ctx, callerID, marketRef, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VoteResponse), args.Error(1)
}

func (m *MockService) GetConsensus(ctx context.Context, marketRef string) (*ConsensusResponse, error) {
	args := m.Called(ctx, marketRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConsensusResponse), args.Error(1)
}

func (m *MockService) ConsensusOutcome(ctx context.Context, marketID uuid.UUID) (int16, error) {
	args := m.Called(ctx, marketID)
	return args.Get(0).(int16), args.Error(1)
}
