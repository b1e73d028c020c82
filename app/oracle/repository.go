package oracle

import (
	"context"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"gorm.io/gorm"
)

type Repository interface {
	GetMarketByRef(ctx context.Context, ref string) (*models.Market, error)

	CreateOracle(ctx context.Context, oracle *models.Oracle) error
	GetOracleByIdentity(ctx context.Context, identity uuid.UUID) (*models.Oracle, error)
	CountOracles(ctx context.Context) (int64, error)

	CreateVote(ctx context.Context, vote *models.OracleVote) error
	GetVote(ctx context.Context, marketID, oracleID uuid.UUID) (*models.OracleVote, error)
	CountVotes(ctx context.Context, marketID uuid.UUID, outcome int16) (int64, error)

	CreateDecision(ctx context.Context, decision *models.ConsensusDecision) error
	GetDecision(ctx context.Context, marketID uuid.UUID) (*models.ConsensusDecision, error)

	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetMarketByRef(ctx context.Context, ref string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

func (r *repository) CreateOracle(ctx context.Context, oracle *models.Oracle) error {
	return r.db.WithContext(ctx).Create(oracle).Error
}

func (r *repository) GetOracleByIdentity(ctx context.Context, identity uuid.UUID) (*models.Oracle, error) {
	var oracle models.Oracle
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&oracle).Error
	if err != nil {
		return nil, err
	}
	return &oracle, nil
}

func (r *repository) CountOracles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Oracle{}).Count(&count).Error
	return count, err
}

func (r *repository) CreateVote(ctx context.Context, vote *models.OracleVote) error {
	if err := vote.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *repository) GetVote(ctx context.Context, marketID, oracleID uuid.UUID) (*models.OracleVote, error) {
	var vote models.OracleVote
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND oracle_id = ?", marketID, oracleID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *repository) CountVotes(ctx context.Context, marketID uuid.UUID, outcome int16) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OracleVote{}).
		Where("market_id = ? AND outcome = ?", marketID, outcome).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateDecision(ctx context.Context, decision *models.ConsensusDecision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *repository) GetDecision(ctx context.Context, marketID uuid.UUID) (*models.ConsensusDecision, error) {
	var decision models.ConsensusDecision
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&decision).Error
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
