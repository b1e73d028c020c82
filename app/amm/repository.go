package amm

import (
	"context"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"gorm.io/gorm"
)

type Repository interface {
	GetMarketByRef(ctx context.Context, ref string) (*models.Market, error)

	CreatePool(ctx context.Context, pool *models.Pool) error
	GetPoolByMarketID(ctx context.Context, marketID uuid.UUID) (*models.Pool, error)
	UpdatePool(ctx context.Context, pool *models.Pool) error

	GetPosition(ctx context.Context, marketID, userID uuid.UUID, outcome int16) (*models.Position, error)
	SavePosition(ctx context.Context, position *models.Position) error

	GetLiquidityShare(ctx context.Context, marketID, providerID uuid.UUID) (*models.LiquidityShare, error)
	SaveLiquidityShare(ctx context.Context, share *models.LiquidityShare) error
	DeleteLiquidityShare(ctx context.Context, share *models.LiquidityShare) error

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

func (r *repository) CreatePool(ctx context.Context, pool *models.Pool) error {
	if err := pool.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(pool).Error
}

func (r *repository) GetPoolByMarketID(ctx context.Context, marketID uuid.UUID) (*models.Pool, error) {
	var pool models.Pool
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *repository) UpdatePool(ctx context.Context, pool *models.Pool) error {
	if err := pool.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(pool).Error
}

func (r *repository) GetPosition(ctx context.Context, marketID, userID uuid.UUID, outcome int16) (*models.Position, error) {
	var position models.Position
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND user_id = ? AND outcome = ?", marketID, userID, outcome).
		First(&position).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *repository) SavePosition(ctx context.Context, position *models.Position) error {
	if err := position.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(position).Error
}

func (r *repository) GetLiquidityShare(ctx context.Context, marketID, providerID uuid.UUID) (*models.LiquidityShare, error) {
	var share models.LiquidityShare
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND provider_id = ?", marketID, providerID).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) SaveLiquidityShare(ctx context.Context, share *models.LiquidityShare) error {
	if err := share.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(share).Error
}

func (r *repository) DeleteLiquidityShare(ctx context.Context, share *models.LiquidityShare) error {
	return r.db.WithContext(ctx).Delete(share).Error
}
