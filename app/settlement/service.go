package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/app/wallet"
	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/internal/numeric"
	"github.com/openpredict/settlement/models"
)

// ConsensusProvider supplies the settled outcome for a market. The oracle
// module's service satisfies it.
type ConsensusProvider interface {
	ConsensusOutcome(ctx context.Context, marketID uuid.UUID) (int16, error)
}

// Service drives the market lifecycle from registration through payout.
// Transitions are forward-only and time-gated; resolution freezes the payout
// totals, and claims are idempotent per position.
type Service interface {
	CreateMarket(ctx context.Context, creatorID uuid.UUID, req *CreateMarketRequest) (*MarketResponse, error)
	GetMarket(ctx context.Context, marketRef string) (*MarketResponse, error)
	ListMarkets(ctx context.Context, status string, limit, offset int) ([]MarketResponse, error)

	CloseMarket(ctx context.Context, marketRef string) (*MarketResponse, error)
	ResolveMarket(ctx context.Context, marketRef string) (*MarketResponse, error)

	Claim(ctx context.Context, userID uuid.UUID, marketRef string) (*ClaimResponse, error)

	Commit(ctx context.Context, userID uuid.UUID, marketRef string, req *CommitRequest) (*CommitmentResponse, error)
	Reveal(ctx context.Context, userID uuid.UUID, marketRef string, req *RevealRequest) (*CommitmentResponse, error)
}

var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// CommitDigest builds the canonical commitment hash for a hidden stake.
// Clients compute the same digest locally before committing.
func CommitDigest(userID uuid.UUID, outcome int16, amount decimal.Decimal, salt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s:%s", userID, outcome, amount, salt)))
	return hex.EncodeToString(sum[:])
}

type service struct {
	repo      Repository
	wallets   wallet.Service
	consensus ConsensusProvider
	config    *Config
	db        *gorm.DB
	log       logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, wallets wallet.Service, consensus ConsensusProvider, config *Config, db *gorm.DB, log logger.Logger) Service {
	return &service{
		repo:      repo,
		wallets:   wallets,
		consensus: consensus,
		config:    config,
		db:        db,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) marketByRef(ctx context.Context, repo Repository, ref string) (*models.Market, error) {
	if !models.ValidMarketRef(ref) {
		return nil, models.ErrInvalidMarketRef
	}
	market, err := repo.GetMarketByRef(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrMarketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load market: %w", err)
	}
	return market, nil
}

func (s *service) CreateMarket(ctx context.Context, creatorID uuid.UUID, req *CreateMarketRequest) (*MarketResponse, error) {
	if !models.ValidMarketRef(req.Ref) {
		return nil, models.ErrInvalidMarketRef
	}
	if !req.ClosingTime.After(s.now()) {
		return nil, models.ErrInvalidCloseTime
	}
	if req.ResolutionTime.Before(req.ClosingTime) {
		return nil, models.ErrInvalidResolveTime
	}

	market := &models.Market{
		Ref:            req.Ref,
		CreatorID:      creatorID,
		Status:         models.MarketStatusOpen,
		ClosingTime:    req.ClosingTime,
		ResolutionTime: req.ResolutionTime,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.GetMarketByRef(ctx, req.Ref); err == nil {
			return models.ErrMarketAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check market: %w", err)
		}
		return repo.CreateMarket(ctx, market)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("market created", logger.Fields{
		"market_ref": market.Ref,
		"creator_id": creatorID.String(),
		"closes_at":  market.ClosingTime,
	})
	return toMarketResponse(market), nil
}

func (s *service) GetMarket(ctx context.Context, marketRef string) (*MarketResponse, error) {
	market, err := s.marketByRef(ctx, s.repo, marketRef)
	if err != nil {
		return nil, err
	}
	return toMarketResponse(market), nil
}

func (s *service) ListMarkets(ctx context.Context, status string, limit, offset int) ([]MarketResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	markets, err := s.repo.ListMarkets(ctx, models.MarketStatus(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}

	responses := make([]MarketResponse, len(markets))
	for i := range markets {
		responses[i] = *toMarketResponse(&markets[i])
	}
	return responses, nil
}

// CloseMarket is permissionless: anyone may push a market past its closing
// time.
func (s *service) CloseMarket(ctx context.Context, marketRef string) (*MarketResponse, error) {
	var market *models.Market
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		market, err = s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if err := market.CanClose(s.now()); err != nil {
			return err
		}

		market.Status = models.MarketStatusClosed
		return repo.UpdateMarket(ctx, market)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("market closed", logger.Fields{"market_ref": market.Ref})
	return toMarketResponse(market), nil
}

// ResolveMarket settles a closed market with the oracle consensus outcome
// and freezes the payout totals from the accumulated stake volume.
func (s *service) ResolveMarket(ctx context.Context, marketRef string) (*MarketResponse, error) {
	var market *models.Market
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		market, err = s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if err := market.CanResolve(s.now()); err != nil {
			return err
		}

		winner, err := s.consensus.ConsensusOutcome(ctx, market.ID)
		if err != nil {
			return err
		}

		winnerPool, loserPool := decimal.Zero, decimal.Zero
		pool, err := repo.GetPoolByMarketID(ctx, market.ID)
		if err == nil {
			if winner == models.OutcomeYes {
				winnerPool, loserPool = pool.YesVolume, pool.NoVolume
			} else {
				winnerPool, loserPool = pool.NoVolume, pool.YesVolume
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load pool: %w", err)
		}

		now := s.now()
		market.Status = models.MarketStatusResolved
		market.WinningOutcome = &winner
		market.WinnerPool = &winnerPool
		market.LoserPool = &loserPool
		market.ResolvedAt = &now
		return repo.UpdateMarket(ctx, market)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("market resolved", logger.Fields{
		"market_ref": market.Ref,
		"outcome":    outcomeLabel(*market.WinningOutcome),
		"winner_pool": market.WinnerPool.String(),
		"loser_pool":  market.LoserPool.String(),
	})
	return toMarketResponse(market), nil
}

// Claim pays a winning position its pro-rata slice of the combined pools:
//
//	gross = floor(amount * (winnerPool + loserPool) / winnerPool)
//
// minus the platform fee. The position is marked claimed in the same
// transaction as the transfers, so retries cannot double-pay.
func (s *service) Claim(ctx context.Context, userID uuid.UUID, marketRef string) (*ClaimResponse, error) {
	var resp *ClaimResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsResolved() {
			return models.ErrMarketNotResolved
		}
		winner := *market.WinningOutcome

		positions, err := repo.GetUserPositions(ctx, market.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to load positions: %w", err)
		}
		if len(positions) == 0 {
			return models.ErrNoPosition
		}

		var position *models.Position
		for i := range positions {
			if positions[i].Outcome == winner {
				position = &positions[i]
				break
			}
		}
		if position == nil {
			return models.ErrNotWinner
		}
		if position.Claimed {
			return models.ErrAlreadyClaimed
		}

		gross, fee, net, err := s.payout(position.Amount, *market.WinnerPool, *market.LoserPool)
		if err != nil {
			return err
		}

		wallets := s.wallets.WithTx(tx)
		if err := wallets.Transfer(ctx, s.config.Escrow(), userID, net.Decimal(), models.TransactionTypeClaim, market.Ref); err != nil {
			return err
		}
		if !fee.IsZero() {
			if err := wallets.Transfer(ctx, s.config.Escrow(), s.config.FeeSink(), fee.Decimal(), models.TransactionTypeFee, market.Ref); err != nil {
				return err
			}
		}

		if err := position.MarkClaimed(s.now()); err != nil {
			return err
		}
		if err := repo.SavePosition(ctx, position); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}

		resp = &ClaimResponse{
			MarketRef:   market.Ref,
			Outcome:     outcomeLabel(winner),
			GrossPayout: gross.String(),
			Fee:         fee.String(),
			NetPayout:   net.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("winnings claimed", logger.Fields{
		"market_ref": resp.MarketRef,
		"user_id":    userID.String(),
		"net_payout": resp.NetPayout,
	})
	return resp, nil
}

func (s *service) payout(amount decimal.Decimal, winnerPool, loserPool decimal.Decimal) (numeric.U128, numeric.U128, numeric.U128, error) {
	zero := numeric.Zero()

	staked, err := numeric.FromDecimal(amount)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	winners, err := numeric.FromDecimal(winnerPool)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	losers, err := numeric.FromDecimal(loserPool)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}

	// A one-sided market resolves with a zero winner total; nothing can be
	// paid out of it.
	if winners.IsZero() {
		return zero, zero, zero, models.ErrNoWinners
	}

	total, err := winners.Add(losers)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	gross, err := staked.MulDiv(total, winners)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	fee, err := gross.MulDiv(numeric.FromUint64(s.config.ClaimFeePercent), numeric.FromUint64(100))
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	net, err := gross.Sub(fee)
	if err != nil {
		return zero, zero, zero, models.ErrInvariantViolation
	}
	if net.IsZero() {
		return zero, zero, zero, models.ErrZeroPayout
	}
	return gross, fee, net, nil
}

// Commit escrows a hidden stake before the market closes. The outcome stays
// secret until Reveal.
func (s *service) Commit(ctx context.Context, userID uuid.UUID, marketRef string, req *CommitRequest) (*CommitmentResponse, error) {
	if !commitHashPattern.MatchString(req.CommitHash) {
		return nil, models.ErrInvalidCommitHash
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if _, err := numeric.FromDecimal(amount); err != nil {
		return nil, models.ErrInvalidAmount
	}

	var commitment *models.Commitment
	var market *models.Market
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err = s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if !market.IsOpen() {
			return models.ErrMarketNotOpen
		}

		if _, err := repo.GetCommitment(ctx, market.ID, userID); err == nil {
			return models.ErrDuplicateCommitment
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check commitment: %w", err)
		}

		if err := s.wallets.WithTx(tx).Transfer(ctx, userID, s.config.Escrow(), amount, models.TransactionTypeCommit, market.Ref); err != nil {
			return err
		}

		commitment = &models.Commitment{
			MarketID:   market.ID,
			UserID:     userID,
			CommitHash: req.CommitHash,
			Amount:     amount,
		}
		return repo.CreateCommitment(ctx, commitment)
	})
	if err != nil {
		return nil, err
	}

	return &CommitmentResponse{
		MarketRef: market.Ref,
		Amount:    commitment.Amount.String(),
		Revealed:  false,
	}, nil
}

// Reveal opens a commitment: the digest is rebuilt from the claimed outcome
// and salt, and on a match the escrowed stake becomes a position and joins
// the outcome's volume.
func (s *service) Reveal(ctx context.Context, userID uuid.UUID, marketRef string, req *RevealRequest) (*CommitmentResponse, error) {
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}

	var resp *CommitmentResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := s.marketByRef(ctx, repo, marketRef)
		if err != nil {
			return err
		}
		if market.IsResolved() {
			return models.ErrMarketAlreadyResolved
		}

		commitment, err := repo.GetCommitment(ctx, market.ID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrCommitmentNotFound
		} else if err != nil {
			return fmt.Errorf("failed to load commitment: %w", err)
		}
		if commitment.Revealed {
			return models.ErrAlreadyRevealed
		}

		if CommitDigest(userID, outcome, commitment.Amount, req.Salt) != commitment.CommitHash {
			return models.ErrRevealMismatch
		}

		pool, err := repo.GetPoolByMarketID(ctx, market.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrPoolNotFound
		} else if err != nil {
			return fmt.Errorf("failed to load pool: %w", err)
		}
		if outcome == models.OutcomeYes {
			pool.YesVolume = pool.YesVolume.Add(commitment.Amount)
		} else {
			pool.NoVolume = pool.NoVolume.Add(commitment.Amount)
		}
		if err := repo.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("failed to update pool: %w", err)
		}

		position, err := repo.GetPosition(ctx, market.ID, userID, outcome)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			position = &models.Position{
				MarketID: market.ID,
				UserID:   userID,
				Outcome:  outcome,
				Shares:   decimal.Zero,
				Amount:   decimal.Zero,
			}
		} else if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}
		position.Amount = position.Amount.Add(commitment.Amount)
		if err := repo.SavePosition(ctx, position); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}

		now := s.now()
		commitment.Revealed = true
		commitment.RevealedAt = &now
		if err := repo.UpdateCommitment(ctx, commitment); err != nil {
			return fmt.Errorf("failed to update commitment: %w", err)
		}

		resp = &CommitmentResponse{
			MarketRef:  market.Ref,
			Amount:     commitment.Amount.String(),
			Revealed:   true,
			Outcome:    outcomeLabel(outcome),
			RevealedAt: &now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
