package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/cache"
	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/internal/numeric"
	"github.com/openpredict/settlement/models"
)

// Service is the trading surface of a market: pool funding, share trading
// and liquidity provisioning. Every mutation runs in one database
// transaction together with its wallet transfers.
type Service interface {
	CreatePool(ctx context.Context, creatorID uuid.UUID, req *CreatePoolRequest) (*PoolResponse, error)
	Buy(ctx context.Context, traderID uuid.UUID, marketRef string, req *BuyRequest) (*TradeResponse, error)
	Sell(ctx context.Context, traderID uuid.UUID, marketRef string, req *SellRequest) (*TradeResponse, error)
	AddLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *AddLiquidityRequest) (*LiquidityResponse, error)
	RemoveLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *RemoveLiquidityRequest) (*LiquidityResponse, error)
	GetOdds(ctx context.Context, marketRef string) (*OddsResponse, error)
	GetPool(ctx context.Context, marketRef string) (*PoolResponse, error)
}

type service struct {
	repo    Repository
	wallets wallet.Service
	engine  *Engine
	config  *Config
	db      *gorm.DB
	cache   cache.Cache[string]
	log     logger.Logger
}

func NewService(repo Repository, wallets wallet.Service, config *Config, db *gorm.DB, c cache.Cache[string], log logger.Logger) Service {
	return &service{
		repo:    repo,
		wallets: wallets,
		engine:  NewEngine(config.FeeBps),
		config:  config,
		db:      db,
		cache:   c,
		log:     log,
	}
}

func oddsKey(ref string) string { return "amm:odds:" + ref }

// reserves lifts a pool's persisted decimals into engine units. A stored
// value outside the engine's range means a corrupted row.
func reserves(pool *models.Pool) (numeric.U128, numeric.U128, error) {
	yes, err := numeric.FromDecimal(pool.YesReserve)
	if err != nil {
		return numeric.Zero(), numeric.Zero(), models.ErrInvariantViolation
	}
	no, err := numeric.FromDecimal(pool.NoReserve)
	if err != nil {
		return numeric.Zero(), numeric.Zero(), models.ErrInvariantViolation
	}
	return yes, no, nil
}

// reportInvariant logs arithmetic invariant violations before they surface;
// these indicate corrupted pool state, not a bad request.
func (s *service) reportInvariant(op, marketRef string, err error) error {
	if errors.Is(err, models.ErrInvariantViolation) {
		s.log.Error(err, logger.Fields{"market_ref": marketRef, "op": op, "invariant": true})
	}
	return err
}

func (s *service) marketByRef(ctx context.Context, repo Repository, ref string) (*models.Market, error) {
	if !models.ValidMarketRef(ref) {
		return nil, models.ErrInvalidMarketRef
	}
	market, err := repo.GetMarketByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMarketNotFound
		}
		return nil, fmt.Errorf("failed to load market: %w", err)
	}
	return market, nil
}

func (s *service) poolByMarket(ctx context.Context, repo Repository, market *models.Market) (*models.Pool, error) {
	pool, err := repo.GetPoolByMarketID(ctx, market.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	return pool, nil
}

func (s *service) CreatePool(ctx context.Context, creatorID uuid.UUID, req *CreatePoolRequest) (*PoolResponse, error) {
	total, err := parseAmount(req.TotalLiquidity, models.ErrInvalidAmount)
	if err != nil {
		return nil, err
	}
	if total.Decimal().GreaterThan(s.config.Cap()) {
		return nil, models.ErrLiquidityCapExceeded
	}

	half, err := s.engine.SplitInitialLiquidity(total)
	if err != nil {
		return nil, err
	}

	var pool *models.Pool
	var market *models.Market
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err = s.marketByRef(ctx, repo, req.MarketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}
		if _, err := repo.GetPoolByMarketID(ctx, market.ID); err == nil {
			return models.ErrPoolAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check pool: %w", err)
		}

		// The odd unit of an uneven funding amount stays in escrow; it is
		// never part of either reserve.
		if err := s.wallets.WithTx(tx).Transfer(ctx, creatorID, s.config.Escrow(), total.Decimal(), models.TransactionTypePoolCreate, market.Ref); err != nil {
			return err
		}

		minted, err := half.Add(half)
		if err != nil {
			return models.ErrInvariantViolation
		}
		pool = &models.Pool{
			MarketID:    market.ID,
			YesReserve:  half.Decimal(),
			NoReserve:   half.Decimal(),
			TotalShares: minted.Decimal(),
			YesVolume:   decimal.Zero,
			NoVolume:    decimal.Zero,
		}
		if err := repo.CreatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to create pool: %w", err)
		}

		return repo.SaveLiquidityShare(ctx, &models.LiquidityShare{
			MarketID:   market.ID,
			ProviderID: creatorID,
			Shares:     minted.Decimal(),
		})
	})
	if err != nil {
		return nil, s.reportInvariant("create_pool", req.MarketRef, err)
	}

	s.invalidateOdds(ctx, market.Ref)
	s.log.Info("pool created", logger.Fields{
		"market_ref": market.Ref,
		"creator_id": creatorID.String(),
		"liquidity":  total.String(),
	})

	yesOdds, noOdds, err := s.engine.Odds(half, half)
	if err != nil {
		return nil, err
	}
	return poolResponse(market, pool, yesOdds, noOdds), nil
}

func (s *service) Buy(ctx context.Context, traderID uuid.UUID, marketRef string, req *BuyRequest) (*TradeResponse, error) {
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount, models.ErrInvalidAmount)
	if err != nil {
		return nil, err
	}
	minShares, err := parseOptionalAmount(req.MinSharesOut, models.ErrInvalidShares)
	if err != nil {
		return nil, err
	}

	var resp *TradeResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}
		pool, err := s.poolByMarket(ctx, repo, market)
		if err != nil {
			return err
		}
		yes, no, err := reserves(pool)
		if err != nil {
			return err
		}

		plan, err := s.engine.PlanBuy(yes, no, outcome, amount)
		if err != nil {
			return err
		}
		if plan.SharesOut.IsZero() {
			return models.ErrAmountTooSmall
		}
		if plan.SharesOut.Lt(minShares) {
			return models.ErrSlippageExceeded
		}

		wallets := s.wallets.WithTx(tx)
		if err := wallets.Transfer(ctx, traderID, s.config.Escrow(), amount.Decimal(), models.TransactionTypeBuy, market.Ref); err != nil {
			return err
		}
		if !plan.Fee.IsZero() {
			if err := wallets.Transfer(ctx, s.config.Escrow(), s.config.FeeSink(), plan.Fee.Decimal(), models.TransactionTypeFee, market.Ref); err != nil {
				return err
			}
		}

		pool.YesReserve = plan.NewYesReserve.Decimal()
		pool.NoReserve = plan.NewNoReserve.Decimal()
		pool.TradeCount++
		if outcome == models.OutcomeYes {
			pool.YesVolume = pool.YesVolume.Add(amount.Decimal())
		} else {
			pool.NoVolume = pool.NoVolume.Add(amount.Decimal())
		}
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		position, err := repo.GetPosition(ctx, market.ID, traderID, outcome)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			position = &models.Position{
				MarketID: market.ID,
				UserID:   traderID,
				Outcome:  outcome,
				Shares:   decimal.Zero,
				Amount:   decimal.Zero,
			}
		} else if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}
		position.Shares = position.Shares.Add(plan.SharesOut.Decimal())
		position.Amount = position.Amount.Add(amount.Decimal())
		if err := repo.SavePosition(ctx, position); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}

		yesOdds, noOdds, err := s.engine.Odds(plan.NewYesReserve, plan.NewNoReserve)
		if err != nil {
			return err
		}
		resp = &TradeResponse{
			MarketRef: market.Ref,
			Outcome:   outcomeLabel(outcome),
			SharesOut: plan.SharesOut.String(),
			Fee:       plan.Fee.String(),
			YesOdds:   yesOdds,
			NoOdds:    noOdds,
		}
		return nil
	})
	if err != nil {
		return nil, s.reportInvariant("buy", marketRef, err)
	}

	s.invalidateOdds(ctx, marketRef)
	return resp, nil
}

func (s *service) Sell(ctx context.Context, traderID uuid.UUID, marketRef string, req *SellRequest) (*TradeResponse, error) {
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}
	shares, err := parseAmount(req.Shares, models.ErrInvalidShares)
	if err != nil {
		return nil, err
	}
	minPayout, err := parseOptionalAmount(req.MinPayout, models.ErrInvalidAmount)
	if err != nil {
		return nil, err
	}

	var resp *TradeResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}
		pool, err := s.poolByMarket(ctx, repo, market)
		if err != nil {
			return err
		}

		position, err := repo.GetPosition(ctx, market.ID, traderID, outcome)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNoPosition
		} else if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}
		if position.Shares.LessThan(shares.Decimal()) {
			return models.ErrInsufficientShares
		}

		yes, no, err := reserves(pool)
		if err != nil {
			return err
		}
		plan, err := s.engine.PlanSell(yes, no, outcome, shares)
		if err != nil {
			return err
		}
		if plan.NetPayout.IsZero() {
			return models.ErrAmountTooSmall
		}
		if plan.NetPayout.Lt(minPayout) {
			return models.ErrSlippageExceeded
		}

		wallets := s.wallets.WithTx(tx)
		if err := wallets.Transfer(ctx, s.config.Escrow(), traderID, plan.NetPayout.Decimal(), models.TransactionTypeSell, market.Ref); err != nil {
			return err
		}
		if !plan.Fee.IsZero() {
			if err := wallets.Transfer(ctx, s.config.Escrow(), s.config.FeeSink(), plan.Fee.Decimal(), models.TransactionTypeFee, market.Ref); err != nil {
				return err
			}
		}

		pool.YesReserve = plan.NewYesReserve.Decimal()
		pool.NoReserve = plan.NewNoReserve.Decimal()
		pool.TradeCount++
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		// Selling returns shares to the pool but never unwinds the
		// contributed amount: stake volume stays monotonic.
		position.Shares = position.Shares.Sub(shares.Decimal())
		if err := repo.SavePosition(ctx, position); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}

		yesOdds, noOdds, err := s.engine.Odds(plan.NewYesReserve, plan.NewNoReserve)
		if err != nil {
			return err
		}
		resp = &TradeResponse{
			MarketRef: market.Ref,
			Outcome:   outcomeLabel(outcome),
			Payout:    plan.NetPayout.String(),
			Fee:       plan.Fee.String(),
			YesOdds:   yesOdds,
			NoOdds:    noOdds,
		}
		return nil
	})
	if err != nil {
		return nil, s.reportInvariant("sell", marketRef, err)
	}

	s.invalidateOdds(ctx, marketRef)
	return resp, nil
}

func (s *service) AddLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *AddLiquidityRequest) (*LiquidityResponse, error) {
	amount, err := parseAmount(req.Amount, models.ErrInvalidAmount)
	if err != nil {
		return nil, err
	}

	var resp *LiquidityResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}
		pool, err := s.poolByMarket(ctx, repo, market)
		if err != nil {
			return err
		}
		if pool.TotalLiquidity().Add(amount.Decimal()).GreaterThan(s.config.Cap()) {
			return models.ErrLiquidityCapExceeded
		}

		yes, no, err := reserves(pool)
		if err != nil {
			return err
		}
		totalShares, err := numeric.FromDecimal(pool.TotalShares)
		if err != nil {
			return models.ErrInvariantViolation
		}

		plan, err := s.engine.PlanAddLiquidity(yes, no, totalShares, amount)
		if err != nil {
			return err
		}
		if plan.Shares.IsZero() {
			return models.ErrAmountTooSmall
		}

		if err := s.wallets.WithTx(tx).Transfer(ctx, providerID, s.config.Escrow(), amount.Decimal(), models.TransactionTypeAddLiquidity, market.Ref); err != nil {
			return err
		}

		pool.YesReserve = plan.NewYesReserve.Decimal()
		pool.NoReserve = plan.NewNoReserve.Decimal()
		pool.TotalShares = pool.TotalShares.Add(plan.Shares.Decimal())
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		share, err := repo.GetLiquidityShare(ctx, market.ID, providerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			share = &models.LiquidityShare{
				MarketID:   market.ID,
				ProviderID: providerID,
				Shares:     decimal.Zero,
			}
		} else if err != nil {
			return fmt.Errorf("failed to load liquidity share: %w", err)
		}
		share.Shares = share.Shares.Add(plan.Shares.Decimal())
		if err := repo.SaveLiquidityShare(ctx, share); err != nil {
			return fmt.Errorf("failed to save liquidity share: %w", err)
		}

		resp = &LiquidityResponse{
			MarketRef:   market.Ref,
			Shares:      plan.Shares.String(),
			YesAmount:   plan.YesAmount.String(),
			NoAmount:    plan.NoAmount.String(),
			TotalShares: pool.TotalShares.String(),
		}
		return nil
	})
	if err != nil {
		return nil, s.reportInvariant("add_liquidity", marketRef, err)
	}

	s.invalidateOdds(ctx, marketRef)
	return resp, nil
}

func (s *service) RemoveLiquidity(ctx context.Context, providerID uuid.UUID, marketRef string, req *RemoveLiquidityRequest) (*LiquidityResponse, error) {
	burn, err := parseAmount(req.Shares, models.ErrInvalidShares)
	if err != nil {
		return nil, err
	}

	var resp *LiquidityResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}
		pool, err := s.poolByMarket(ctx, repo, market)
		if err != nil {
			return err
		}

		share, err := repo.GetLiquidityShare(ctx, market.ID, providerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrInsufficientShares
		} else if err != nil {
			return fmt.Errorf("failed to load liquidity share: %w", err)
		}
		if share.Shares.LessThan(burn.Decimal()) {
			return models.ErrInsufficientShares
		}

		yes, no, err := reserves(pool)
		if err != nil {
			return err
		}
		totalShares, err := numeric.FromDecimal(pool.TotalShares)
		if err != nil {
			return models.ErrInvariantViolation
		}

		plan, err := s.engine.PlanRemoveLiquidity(yes, no, totalShares, burn)
		if err != nil {
			return err
		}

		payout, err := plan.YesAmount.Add(plan.NoAmount)
		if err != nil {
			return models.ErrInvariantViolation
		}
		if err := s.wallets.WithTx(tx).Transfer(ctx, s.config.Escrow(), providerID, payout.Decimal(), models.TransactionTypeRemoveLiquidity, market.Ref); err != nil {
			return err
		}

		pool.YesReserve = plan.NewYesReserve.Decimal()
		pool.NoReserve = plan.NewNoReserve.Decimal()
		pool.TotalShares = pool.TotalShares.Sub(burn.Decimal())
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		share.Shares = share.Shares.Sub(burn.Decimal())
		if share.Shares.IsZero() {
			if err := repo.DeleteLiquidityShare(ctx, share); err != nil {
				return fmt.Errorf("failed to delete liquidity share: %w", err)
			}
		} else if err := repo.SaveLiquidityShare(ctx, share); err != nil {
			return fmt.Errorf("failed to save liquidity share: %w", err)
		}

		resp = &LiquidityResponse{
			MarketRef:   market.Ref,
			Shares:      burn.String(),
			YesAmount:   plan.YesAmount.String(),
			NoAmount:    plan.NoAmount.String(),
			TotalShares: pool.TotalShares.String(),
		}
		return nil
	})
	if err != nil {
		return nil, s.reportInvariant("remove_liquidity", marketRef, err)
	}

	s.invalidateOdds(ctx, marketRef)
	return resp, nil
}

func (s *service) GetOdds(ctx context.Context, marketRef string) (*OddsResponse, error) {
	if cached, err := s.cache.Get(ctx, oddsKey(marketRef)); err == nil {
		var yesOdds, noOdds uint32
		if _, err := fmt.Sscanf(cached, "%d/%d", &yesOdds, &noOdds); err == nil {
			return &OddsResponse{MarketRef: marketRef, YesOdds: yesOdds, NoOdds: noOdds}, nil
		}
	}

	market, err := s.marketByRef(ctx, s.repo, marketRef)
	if err != nil {
		return nil, err
	}

	yesOdds, noOdds := uint32(5000), uint32(5000)
	pool, err := s.poolByMarket(ctx, s.repo, market)
	switch {
	case err == nil:
		yes, no, rerr := reserves(pool)
		if rerr != nil {
			return nil, rerr
		}
		yesOdds, noOdds, err = s.engine.Odds(yes, no)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, models.ErrPoolNotFound):
		// Markets without a pool quote even odds.
	default:
		return nil, err
	}

	if err := s.cache.Set(ctx, oddsKey(marketRef), fmt.Sprintf("%d/%d", yesOdds, noOdds), s.config.OddsCacheTTL); err != nil {
		s.log.Error(err, logger.Fields{"market_ref": marketRef, "op": "cache_odds"})
	}
	return &OddsResponse{MarketRef: marketRef, YesOdds: yesOdds, NoOdds: noOdds}, nil
}

func (s *service) GetPool(ctx context.Context, marketRef string) (*PoolResponse, error) {
	market, err := s.marketByRef(ctx, s.repo, marketRef)
	if err != nil {
		return nil, err
	}
	pool, err := s.poolByMarket(ctx, s.repo, market)
	if err != nil {
		return nil, err
	}
	yes, no, err := reserves(pool)
	if err != nil {
		return nil, err
	}
	yesOdds, noOdds, err := s.engine.Odds(yes, no)
	if err != nil {
		return nil, err
	}
	return poolResponse(market, pool, yesOdds, noOdds), nil
}

func (s *service) invalidateOdds(ctx context.Context, marketRef string) {
	if err := s.cache.Delete(ctx, oddsKey(marketRef)); err != nil {
		s.log.Error(err, logger.Fields{"market_ref": marketRef, "op": "invalidate_odds"})
	}
}
