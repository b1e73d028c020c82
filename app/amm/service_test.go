package amm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/cache"
	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/models"
)

const testMarketRef = "a3f1b2c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2"

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		FeeBps:       DefaultFeeBps,
		LiquidityCap: DefaultLiquidityCap,
		EscrowID:     uuid.New().String(),
		FeeSinkID:    uuid.New().String(),
		OddsCacheTTL: time.Second,
	}
	require.NoError(t, cfg.Parse())
	return cfg
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

type serviceFixture struct {
	svc     Service
	repo    *MockRepository
	wallets *wallet.MockService
	dbMock  sqlmock.Sqlmock
	config  *Config
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, dbMock := newTestDB(t)
	repo := new(MockRepository)
	wallets := new(wallet.MockService)
	cfg := testConfig(t)

	svc := NewService(repo, wallets, cfg, db, cache.NewMemoryCache[string](), logger.NewNullLogger())
	return &serviceFixture{svc: svc, repo: repo, wallets: wallets, dbMock: dbMock, config: cfg}
}

func openMarket(ref string) *models.Market {
	return &models.Market{
		ID:             uuid.New(),
		Ref:            ref,
		CreatorID:      uuid.New(),
		Status:         models.MarketStatusOpen,
		ClosingTime:    time.Now().Add(time.Hour),
		ResolutionTime: time.Now().Add(2 * time.Hour),
	}
}

func evenPool(marketID uuid.UUID, reserve, totalShares int64) *models.Pool {
	return &models.Pool{
		ID:          uuid.New(),
		MarketID:    marketID,
		YesReserve:  decimal.NewFromInt(reserve),
		NoReserve:   decimal.NewFromInt(reserve),
		TotalShares: decimal.NewFromInt(totalShares),
		YesVolume:   decimal.Zero,
		NoVolume:    decimal.Zero,
	}
}

func TestService_CreatePool(t *testing.T) {
	ctx := context.Background()

	t.Run("splits funding evenly and mints initial shares", func(t *testing.T) {
		f := newServiceFixture(t)
		creator := uuid.New()
		market := openMarket(testMarketRef)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(nil, gorm.ErrRecordNotFound)
		f.wallets.On("Transfer", mock.Anything, creator, f.config.Escrow(),
			decimal.NewFromInt(10_000_000_000), models.TransactionTypePoolCreate, testMarketRef).Return(nil)
		f.repo.On("CreatePool", mock.Anything, mock.MatchedBy(func(p *models.Pool) bool {
			return p.YesReserve.Equal(decimal.NewFromInt(5_000_000_000)) &&
				p.NoReserve.Equal(decimal.NewFromInt(5_000_000_000)) &&
				p.TotalShares.Equal(decimal.NewFromInt(10_000_000_000))
		})).Return(nil)
		f.repo.On("SaveLiquidityShare", mock.Anything, mock.MatchedBy(func(s *models.LiquidityShare) bool {
			return s.ProviderID == creator && s.Shares.Equal(decimal.NewFromInt(10_000_000_000))
		})).Return(nil)

		resp, err := f.svc.CreatePool(ctx, creator, &CreatePoolRequest{
			MarketRef:      testMarketRef,
			TotalLiquidity: "10000000000",
		})
		require.NoError(t, err)

		assert.Equal(t, "5000000000", resp.YesReserve)
		assert.Equal(t, "5000000000", resp.NoReserve)
		assert.Equal(t, uint32(5000), resp.YesOdds)
		assert.Equal(t, uint32(5000), resp.NoOdds)
		f.repo.AssertExpectations(t)
		f.wallets.AssertExpectations(t)
	})

	t.Run("rejects funding below two units", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.CreatePool(ctx, uuid.New(), &CreatePoolRequest{
			MarketRef:      testMarketRef,
			TotalLiquidity: "1",
		})
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("rejects funding above the cap", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.CreatePool(ctx, uuid.New(), &CreatePoolRequest{
			MarketRef:      testMarketRef,
			TotalLiquidity: "1" + strings.Repeat("0", 21),
		})
		assert.ErrorIs(t, err, models.ErrLiquidityCapExceeded)
	})

	t.Run("rejects a second pool for the same market", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).
			Return(evenPool(market.ID, 500, 1000), nil)

		_, err := f.svc.CreatePool(ctx, uuid.New(), &CreatePoolRequest{
			MarketRef:      testMarketRef,
			TotalLiquidity: "1000",
		})
		assert.ErrorIs(t, err, models.ErrPoolAlreadyExists)
	})

	t.Run("rejects a closed market", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)
		market.Status = models.MarketStatusClosed

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)

		_, err := f.svc.CreatePool(ctx, uuid.New(), &CreatePoolRequest{
			MarketRef:      testMarketRef,
			TotalLiquidity: "1000",
		})
		assert.ErrorIs(t, err, models.ErrMarketNotOpen)
	})

	t.Run("rejects a malformed market ref", func(t *testing.T) {
		f := newServiceFixture(t)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		_, err := f.svc.CreatePool(ctx, uuid.New(), &CreatePoolRequest{
			MarketRef:      "not-hex",
			TotalLiquidity: "1000",
		})
		assert.ErrorIs(t, err, models.ErrInvalidMarketRef)
	})
}

func TestService_Buy(t *testing.T) {
	ctx := context.Background()

	t.Run("fills against the opposite reserve", func(t *testing.T) {
		f := newServiceFixture(t)
		trader := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1000, 2000)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.wallets.On("Transfer", mock.Anything, trader, f.config.Escrow(),
			decimal.NewFromInt(100), models.TransactionTypeBuy, testMarketRef).Return(nil)
		f.repo.On("UpdatePool", mock.Anything, mock.MatchedBy(func(p *models.Pool) bool {
			return p.YesReserve.Equal(decimal.NewFromInt(910)) &&
				p.NoReserve.Equal(decimal.NewFromInt(1100)) &&
				p.YesVolume.Equal(decimal.NewFromInt(100)) &&
				p.TradeCount == 1
		})).Return(nil)
		f.repo.On("GetPosition", mock.Anything, market.ID, trader, models.OutcomeYes).
			Return(nil, gorm.ErrRecordNotFound)
		f.repo.On("SavePosition", mock.Anything, mock.MatchedBy(func(p *models.Position) bool {
			return p.Shares.Equal(decimal.NewFromInt(90)) &&
				p.Amount.Equal(decimal.NewFromInt(100))
		})).Return(nil)

		resp, err := f.svc.Buy(ctx, trader, testMarketRef, &BuyRequest{Outcome: "yes", Amount: "100"})
		require.NoError(t, err)

		assert.Equal(t, "90", resp.SharesOut)
		assert.Equal(t, "0", resp.Fee)
		assert.Equal(t, uint32(10_000), resp.YesOdds+resp.NoOdds)
		f.repo.AssertExpectations(t)
		f.wallets.AssertExpectations(t)
	})

	t.Run("collects the fee once it is nonzero", func(t *testing.T) {
		f := newServiceFixture(t)
		trader := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1_000_000, 2_000_000)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.wallets.On("Transfer", mock.Anything, trader, f.config.Escrow(),
			decimal.NewFromInt(100_000), models.TransactionTypeBuy, testMarketRef).Return(nil)
		f.wallets.On("Transfer", mock.Anything, f.config.Escrow(), f.config.FeeSink(),
			decimal.NewFromInt(200), models.TransactionTypeFee, testMarketRef).Return(nil)
		f.repo.On("UpdatePool", mock.Anything, mock.Anything).Return(nil)
		f.repo.On("GetPosition", mock.Anything, market.ID, trader, models.OutcomeYes).
			Return(nil, gorm.ErrRecordNotFound)
		f.repo.On("SavePosition", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.svc.Buy(ctx, trader, testMarketRef, &BuyRequest{Outcome: "yes", Amount: "100000"})
		require.NoError(t, err)

		assert.Equal(t, "200", resp.Fee)
		f.wallets.AssertExpectations(t)
	})

	t.Run("aborts when the fill is worse than the guard", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1000, 2000)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)

		_, err := f.svc.Buy(ctx, uuid.New(), testMarketRef, &BuyRequest{
			Outcome:      "yes",
			Amount:       "100",
			MinSharesOut: "91",
		})
		assert.ErrorIs(t, err, models.ErrSlippageExceeded)
	})

	t.Run("rejects trading on a closed market", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)
		market.Status = models.MarketStatusClosed

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)

		_, err := f.svc.Buy(ctx, uuid.New(), testMarketRef, &BuyRequest{Outcome: "no", Amount: "100"})
		assert.ErrorIs(t, err, models.ErrMarketNotOpen)
	})

	t.Run("rejects a market without a pool", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(nil, gorm.ErrRecordNotFound)

		_, err := f.svc.Buy(ctx, uuid.New(), testMarketRef, &BuyRequest{Outcome: "no", Amount: "100"})
		assert.ErrorIs(t, err, models.ErrPoolNotFound)
	})
}

func TestService_Sell(t *testing.T) {
	ctx := context.Background()

	t.Run("pays out by restoring the constant product", func(t *testing.T) {
		f := newServiceFixture(t)
		trader := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1000, 2000)
		position := &models.Position{
			ID:       uuid.New(),
			MarketID: market.ID,
			UserID:   trader,
			Outcome:  models.OutcomeYes,
			Shares:   decimal.NewFromInt(50),
			Amount:   decimal.NewFromInt(60),
		}

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.repo.On("GetPosition", mock.Anything, market.ID, trader, models.OutcomeYes).Return(position, nil)
		f.wallets.On("Transfer", mock.Anything, f.config.Escrow(), trader,
			decimal.NewFromInt(48), models.TransactionTypeSell, testMarketRef).Return(nil)
		f.repo.On("UpdatePool", mock.Anything, mock.MatchedBy(func(p *models.Pool) bool {
			return p.YesReserve.Equal(decimal.NewFromInt(1050)) &&
				p.NoReserve.Equal(decimal.NewFromInt(952)) &&
				p.TradeCount == 1
		})).Return(nil)
		f.repo.On("SavePosition", mock.Anything, mock.MatchedBy(func(p *models.Position) bool {
			// contributed amount survives the sale
			return p.Shares.IsZero() && p.Amount.Equal(decimal.NewFromInt(60))
		})).Return(nil)

		resp, err := f.svc.Sell(ctx, trader, testMarketRef, &SellRequest{Outcome: "yes", Shares: "50"})
		require.NoError(t, err)

		assert.Equal(t, "48", resp.Payout)
		assert.Equal(t, "0", resp.Fee)
		f.repo.AssertExpectations(t)
		f.wallets.AssertExpectations(t)
	})

	t.Run("rejects selling more shares than held", func(t *testing.T) {
		f := newServiceFixture(t)
		trader := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1000, 2000)
		position := &models.Position{
			MarketID: market.ID,
			UserID:   trader,
			Outcome:  models.OutcomeYes,
			Shares:   decimal.NewFromInt(10),
		}

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.repo.On("GetPosition", mock.Anything, market.ID, trader, models.OutcomeYes).Return(position, nil)

		_, err := f.svc.Sell(ctx, trader, testMarketRef, &SellRequest{Outcome: "yes", Shares: "50"})
		assert.ErrorIs(t, err, models.ErrInsufficientShares)
	})

	t.Run("rejects selling without a position", func(t *testing.T) {
		f := newServiceFixture(t)
		trader := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 1000, 2000)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.repo.On("GetPosition", mock.Anything, market.ID, trader, models.OutcomeNo).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := f.svc.Sell(ctx, trader, testMarketRef, &SellRequest{Outcome: "no", Shares: "50"})
		assert.ErrorIs(t, err, models.ErrNoPosition)
	})
}

func TestService_Liquidity(t *testing.T) {
	ctx := context.Background()

	t.Run("deposit mints proportional shares", func(t *testing.T) {
		f := newServiceFixture(t)
		provider := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 5000, 10_000)

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.wallets.On("Transfer", mock.Anything, provider, f.config.Escrow(),
			decimal.NewFromInt(1000), models.TransactionTypeAddLiquidity, testMarketRef).Return(nil)
		f.repo.On("UpdatePool", mock.Anything, mock.MatchedBy(func(p *models.Pool) bool {
			return p.YesReserve.Equal(decimal.NewFromInt(5500)) &&
				p.NoReserve.Equal(decimal.NewFromInt(5500)) &&
				p.TotalShares.Equal(decimal.NewFromInt(11_000))
		})).Return(nil)
		f.repo.On("GetLiquidityShare", mock.Anything, market.ID, provider).
			Return(nil, gorm.ErrRecordNotFound)
		f.repo.On("SaveLiquidityShare", mock.Anything, mock.MatchedBy(func(s *models.LiquidityShare) bool {
			return s.Shares.Equal(decimal.NewFromInt(1000))
		})).Return(nil)

		resp, err := f.svc.AddLiquidity(ctx, provider, testMarketRef, &AddLiquidityRequest{Amount: "1000"})
		require.NoError(t, err)

		assert.Equal(t, "1000", resp.Shares)
		assert.Equal(t, "500", resp.YesAmount)
		assert.Equal(t, "500", resp.NoAmount)
		f.repo.AssertExpectations(t)
	})

	t.Run("deposit above the cap is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 5000, 10_000)
		f.config.LiquidityCap = "10500"
		require.NoError(t, f.config.Parse())

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)

		_, err := f.svc.AddLiquidity(ctx, uuid.New(), testMarketRef, &AddLiquidityRequest{Amount: "1000"})
		assert.ErrorIs(t, err, models.ErrLiquidityCapExceeded)
	})

	t.Run("withdrawal burns shares and pays both sides", func(t *testing.T) {
		f := newServiceFixture(t)
		provider := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 5500, 11_000)
		share := &models.LiquidityShare{
			ID:         uuid.New(),
			MarketID:   market.ID,
			ProviderID: provider,
			Shares:     decimal.NewFromInt(1000),
		}

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectCommit()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.repo.On("GetLiquidityShare", mock.Anything, market.ID, provider).Return(share, nil)
		f.wallets.On("Transfer", mock.Anything, f.config.Escrow(), provider,
			decimal.NewFromInt(1000), models.TransactionTypeRemoveLiquidity, testMarketRef).Return(nil)
		f.repo.On("UpdatePool", mock.Anything, mock.MatchedBy(func(p *models.Pool) bool {
			return p.YesReserve.Equal(decimal.NewFromInt(5000)) &&
				p.TotalShares.Equal(decimal.NewFromInt(10_000))
		})).Return(nil)
		// the balance burned to zero, so the row goes away
		f.repo.On("DeleteLiquidityShare", mock.Anything, share).Return(nil)

		resp, err := f.svc.RemoveLiquidity(ctx, provider, testMarketRef, &RemoveLiquidityRequest{Shares: "1000"})
		require.NoError(t, err)

		assert.Equal(t, "500", resp.YesAmount)
		assert.Equal(t, "500", resp.NoAmount)
		f.repo.AssertExpectations(t)
	})

	t.Run("withdrawal beyond the balance is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		provider := uuid.New()
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 5500, 11_000)
		share := &models.LiquidityShare{
			MarketID:   market.ID,
			ProviderID: provider,
			Shares:     decimal.NewFromInt(100),
		}

		f.dbMock.ExpectBegin()
		f.dbMock.ExpectRollback()

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil)
		f.repo.On("GetLiquidityShare", mock.Anything, market.ID, provider).Return(share, nil)

		_, err := f.svc.RemoveLiquidity(ctx, provider, testMarketRef, &RemoveLiquidityRequest{Shares: "1000"})
		assert.ErrorIs(t, err, models.ErrInsufficientShares)
	})
}

func TestService_GetOdds(t *testing.T) {
	ctx := context.Background()

	t.Run("markets without a pool quote even odds", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil)
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(nil, gorm.ErrRecordNotFound)

		resp, err := f.svc.GetOdds(ctx, testMarketRef)
		require.NoError(t, err)

		assert.Equal(t, uint32(5000), resp.YesOdds)
		assert.Equal(t, uint32(5000), resp.NoOdds)
	})

	t.Run("serves repeated reads from the cache", func(t *testing.T) {
		f := newServiceFixture(t)
		market := openMarket(testMarketRef)
		pool := evenPool(market.ID, 910, 2000)
		pool.NoReserve = decimal.NewFromInt(1100)

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(market, nil).Once()
		f.repo.On("GetPoolByMarketID", mock.Anything, market.ID).Return(pool, nil).Once()

		first, err := f.svc.GetOdds(ctx, testMarketRef)
		require.NoError(t, err)
		assert.Equal(t, uint32(5473), first.YesOdds)
		assert.Equal(t, uint32(4527), first.NoOdds)

		second, err := f.svc.GetOdds(ctx, testMarketRef)
		require.NoError(t, err)
		assert.Equal(t, first.YesOdds, second.YesOdds)
		f.repo.AssertExpectations(t)
	})

	t.Run("unknown market is rejected", func(t *testing.T) {
		f := newServiceFixture(t)

		f.repo.On("GetMarketByRef", mock.Anything, testMarketRef).Return(nil, gorm.ErrRecordNotFound)

		_, err := f.svc.GetOdds(ctx, testMarketRef)
		assert.ErrorIs(t, err, models.ErrMarketNotFound)
	})
}
