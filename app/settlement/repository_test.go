package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/models"
	"github.com/openpredict/settlement/tests/suites"
)

type SettlementRepositoryTestSuite struct {
	suites.RepositoryTestSuite
	repo Repository
}

func (suite *SettlementRepositoryTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("Skipping database integration test")
	}

	suite.AutoMigrate = true
	suite.RepositoryTestSuite.SetupSuite()
	suite.repo = NewRepository(suite.DB)
}

func TestSettlementRepository(t *testing.T) {
	suite.Run(t, new(SettlementRepositoryTestSuite))
}

func (suite *SettlementRepositoryTestSuite) marketRef(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func (suite *SettlementRepositoryTestSuite) createTestMarket(seed string) *models.Market {
	market := &models.Market{
		Ref:            suite.marketRef(seed),
		CreatorID:      uuid.New(),
		Status:         models.MarketStatusOpen,
		ClosingTime:    time.Now().Add(24 * time.Hour),
		ResolutionTime: time.Now().Add(48 * time.Hour),
	}
	err := suite.repo.CreateMarket(context.Background(), market)
	suite.AssertNoDBError(err)
	return market
}

func (suite *SettlementRepositoryTestSuite) TestCreateMarket() {
	market := suite.createTestMarket("create")

	suite.Assert().NotEqual(uuid.Nil, market.ID)
	suite.Assert().Equal(int64(1), suite.CountRecords("markets"))
}

func (suite *SettlementRepositoryTestSuite) TestCreateMarket_InvalidRef() {
	market := &models.Market{
		Ref:            "not-a-ref",
		CreatorID:      uuid.New(),
		ClosingTime:    time.Now().Add(time.Hour),
		ResolutionTime: time.Now().Add(2 * time.Hour),
	}
	err := suite.repo.CreateMarket(context.Background(), market)
	suite.AssertDBError(err)
	suite.Assert().ErrorIs(err, models.ErrInvalidMarketRef)
}

func (suite *SettlementRepositoryTestSuite) TestCreateMarket_DuplicateRef() {
	market := suite.createTestMarket("dup")

	dup := &models.Market{
		Ref:            market.Ref,
		CreatorID:      uuid.New(),
		ClosingTime:    market.ClosingTime,
		ResolutionTime: market.ResolutionTime,
	}
	err := suite.repo.CreateMarket(context.Background(), dup)
	suite.AssertDBError(err)
}

func (suite *SettlementRepositoryTestSuite) TestGetMarketByRef() {
	ctx := context.Background()
	market := suite.createTestMarket("getbyref")

	found, err := suite.repo.GetMarketByRef(ctx, market.Ref)
	suite.AssertNoDBError(err)
	suite.Assert().Equal(market.ID, found.ID)
	suite.Assert().Equal(models.MarketStatusOpen, found.Status)
}

func (suite *SettlementRepositoryTestSuite) TestGetMarketByRef_NotFound() {
	ctx := context.Background()

	found, err := suite.repo.GetMarketByRef(ctx, suite.marketRef("missing"))
	suite.AssertDBError(err)
	suite.Assert().Nil(found)
	suite.Assert().ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *SettlementRepositoryTestSuite) TestUpdateMarket_Resolution() {
	ctx := context.Background()
	market := suite.createTestMarket("resolve")

	winner := models.OutcomeYes
	winnerPool := decimal.NewFromInt(1000)
	loserPool := decimal.NewFromInt(500)
	resolvedAt := time.Now()

	market.Status = models.MarketStatusResolved
	market.WinningOutcome = &winner
	market.WinnerPool = &winnerPool
	market.LoserPool = &loserPool
	market.ResolvedAt = &resolvedAt

	err := suite.repo.UpdateMarket(ctx, market)
	suite.AssertNoDBError(err)

	updated, err := suite.repo.GetMarketByRef(ctx, market.Ref)
	suite.AssertNoDBError(err)
	suite.Assert().Equal(models.MarketStatusResolved, updated.Status)
	suite.Assert().Equal(models.OutcomeYes, *updated.WinningOutcome)
	suite.Assert().True(updated.WinnerPool.Equal(winnerPool))
	suite.Assert().True(updated.LoserPool.Equal(loserPool))
}

func (suite *SettlementRepositoryTestSuite) TestListMarkets_FilterByStatus() {
	ctx := context.Background()
	open := suite.createTestMarket("list-open")
	closed := suite.createTestMarket("list-closed")
	closed.Status = models.MarketStatusClosed
	suite.AssertNoDBError(suite.repo.UpdateMarket(ctx, closed))

	markets, err := suite.repo.ListMarkets(ctx, models.MarketStatusOpen, 10, 0)
	suite.AssertNoDBError(err)
	suite.Assert().Len(markets, 1)
	suite.Assert().Equal(open.Ref, markets[0].Ref)

	all, err := suite.repo.ListMarkets(ctx, "", 10, 0)
	suite.AssertNoDBError(err)
	suite.Assert().Len(all, 2)
}

func (suite *SettlementRepositoryTestSuite) TestPositions() {
	ctx := context.Background()
	market := suite.createTestMarket("positions")
	userID := uuid.New()

	yes := &models.Position{
		MarketID: market.ID,
		UserID:   userID,
		Outcome:  models.OutcomeYes,
		Shares:   decimal.NewFromInt(90),
		Amount:   decimal.NewFromInt(100),
	}
	suite.AssertNoDBError(suite.repo.SavePosition(ctx, yes))

	no := &models.Position{
		MarketID: market.ID,
		UserID:   userID,
		Outcome:  models.OutcomeNo,
		Shares:   decimal.NewFromInt(40),
		Amount:   decimal.NewFromInt(50),
	}
	suite.AssertNoDBError(suite.repo.SavePosition(ctx, no))

	found, err := suite.repo.GetPosition(ctx, market.ID, userID, models.OutcomeYes)
	suite.AssertNoDBError(err)
	suite.Assert().True(found.Shares.Equal(decimal.NewFromInt(90)))

	found.Claimed = true
	suite.AssertNoDBError(suite.repo.SavePosition(ctx, found))

	positions, err := suite.repo.GetUserPositions(ctx, market.ID, userID)
	suite.AssertNoDBError(err)
	suite.Assert().Len(positions, 2)
}

func (suite *SettlementRepositoryTestSuite) TestPositions_CascadeOnMarketDelete() {
	ctx := context.Background()
	market := suite.createTestMarket("cascade")

	position := &models.Position{
		MarketID: market.ID,
		UserID:   uuid.New(),
		Outcome:  models.OutcomeYes,
		Shares:   decimal.NewFromInt(1),
		Amount:   decimal.NewFromInt(1),
	}
	suite.AssertNoDBError(suite.repo.SavePosition(ctx, position))

	suite.AssertNoDBError(suite.ExecRaw(`DELETE FROM markets WHERE id = ?`, market.ID))
	suite.Assert().Equal(int64(0), suite.CountRecords("positions"))
}

func (suite *SettlementRepositoryTestSuite) TestCommitments() {
	ctx := context.Background()
	market := suite.createTestMarket("commitments")
	userID := uuid.New()

	commitment := &models.Commitment{
		MarketID:   market.ID,
		UserID:     userID,
		CommitHash: suite.marketRef("hash"),
		Amount:     decimal.NewFromInt(300),
	}
	suite.AssertNoDBError(suite.repo.CreateCommitment(ctx, commitment))

	dup := &models.Commitment{
		MarketID:   market.ID,
		UserID:     userID,
		CommitHash: suite.marketRef("other"),
		Amount:     decimal.NewFromInt(1),
	}
	suite.AssertDBError(suite.repo.CreateCommitment(ctx, dup))

	found, err := suite.repo.GetCommitment(ctx, market.ID, userID)
	suite.AssertNoDBError(err)
	suite.Assert().False(found.Revealed)

	found.Revealed = true
	suite.AssertNoDBError(suite.repo.UpdateCommitment(ctx, found))

	updated, err := suite.repo.GetCommitment(ctx, market.ID, userID)
	suite.AssertNoDBError(err)
	suite.Assert().True(updated.Revealed)
}

func (suite *SettlementRepositoryTestSuite) TestPool_RoundTrip() {
	ctx := context.Background()
	market := suite.createTestMarket("pool")

	pool := &models.Pool{
		MarketID:    market.ID,
		YesReserve:  decimal.NewFromInt(1000),
		NoReserve:   decimal.NewFromInt(1000),
		TotalShares: decimal.NewFromInt(2000),
	}
	suite.AssertNoDBError(suite.DB.Create(pool).Error)

	found, err := suite.repo.GetPoolByMarketID(ctx, market.ID)
	suite.AssertNoDBError(err)
	suite.Assert().True(found.YesReserve.Equal(decimal.NewFromInt(1000)))

	found.YesVolume = decimal.NewFromInt(700)
	found.TradeCount = 3
	suite.AssertNoDBError(suite.repo.UpdatePool(ctx, found))

	reloaded, err := suite.repo.GetPoolByMarketID(ctx, market.ID)
	suite.AssertNoDBError(err)
	suite.Assert().True(reloaded.YesVolume.Equal(decimal.NewFromInt(700)))
	suite.Assert().Equal(int64(3), reloaded.TradeCount)
}
