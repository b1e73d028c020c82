package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
	"gorm.io/gorm"
)

type Repository interface {
	CreateMarket(ctx context.Context, market *models.Market) error
	GetMarketByRef(ctx context.Context, ref string) (*models.Market, error)
	UpdateMarket(ctx context.Context, market *models.Market) error
	ListMarkets(ctx context.Context, status models.MarketStatus, limit, offset int) ([]models.Market, error)

	GetPoolByMarketID(ctx context.Context, marketID uuid.UUID) (*models.Pool, error)
	UpdatePool(ctx context.Context, pool *models.Pool) error

	GetUserPositions(ctx context.Context, marketID, userID uuid.UUID) ([]models.Position, error)
	GetPosition(ctx context.Context, marketID, userID uuid.UUID, outcome int16) (*models.Position, error)
	SavePosition(ctx context.Context, position *models.Position) error

	CreateCommitment(ctx context.Context, commitment *models.Commitment) error
	GetCommitment(ctx context.Context, marketID, userID uuid.UUID) (*models.Commitment, error)
	UpdateCommitment(ctx context.Context, commitment *models.Commitment) error

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

func (r *repository) CreateMarket(ctx context.Context, market *models.Market) error {
	if err := market.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(market).Error
}

func (r *repository) GetMarketByRef(ctx context.Context, ref string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

func (r *repository) UpdateMarket(ctx context.Context, market *models.Market) error {
	if err := market.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(market).Error
}

func (r *repository) ListMarkets(ctx context.Context, status models.MarketStatus, limit, offset int) ([]models.Market, error) {
	var markets []models.Market
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&markets).Error
	return markets, err
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

func (r *repository) GetUserPositions(ctx context.Context, marketID, userID uuid.UUID) ([]models.Position, error) {
	var positions []models.Position
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND user_id = ?", marketID, userID).
		Find(&positions).Error
	return positions, err
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

func (r *repository) CreateCommitment(ctx context.Context, commitment *models.Commitment) error {
	if err := commitment.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(commitment).Error
}

func (r *repository) GetCommitment(ctx context.Context, marketID, userID uuid.UUID) (*models.Commitment, error) {
	var commitment models.Commitment
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND user_id = ?", marketID, userID).
		First(&commitment).Error
	if err != nil {
		return nil, err
	}
	return &commitment, nil
}

func (r *repository) UpdateCommitment(ctx context.Context, commitment *models.Commitment) error {
	if err := commitment.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(commitment).Error
}
