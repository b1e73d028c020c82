package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpredict/settlement/internal/logger"
	"github.com/openpredict/settlement/models"
)

// Service is the attestation surface: a capacity-bounded registry of oracle
// identities, write-once voting per market, and threshold consensus. The
// first evaluation that crosses the threshold is persisted; after that the
// market's voting is closed and the decision never changes.
type Service interface {
	RegisterOracle(ctx context.Context, callerID uuid.UUID, req *RegisterOracleRequest) (*OracleResponse, error)
	SubmitVote(ctx context.Context, callerID uuid.UUID, marketRef string, req *VoteRequest) (*VoteResponse, error)
	GetConsensus(ctx context.Context, marketRef string) (*ConsensusResponse, error)

	// ConsensusOutcome returns the settled outcome for a market, or
	// ErrConsensusNotReached while voting is still undecided.
	ConsensusOutcome(ctx context.Context, marketID uuid.UUID) (int16, error)
}

type service struct {
	repo   Repository
	config *Config
	db     *gorm.DB
	log    logger.Logger
}

func NewService(repo Repository, config *Config, db *gorm.DB, log logger.Logger) Service {
	return &service{repo: repo, config: config, db: db, log: log}
}

func (s *service) RegisterOracle(ctx context.Context, callerID uuid.UUID, req *RegisterOracleRequest) (*OracleResponse, error) {
	if callerID != s.config.Admin() {
		return nil, models.ErrForbidden
	}
	identity, err := uuid.Parse(req.Identity)
	if err != nil {
		return nil, models.ErrInvalidOracleIdentity
	}

	var oracle *models.Oracle
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, err := repo.CountOracles(ctx)
		if err != nil {
			return fmt.Errorf("failed to count oracles: %w", err)
		}
		if count >= int64(s.config.MaxOracles) {
			return models.ErrOracleLimitReached
		}

		if _, err := repo.GetOracleByIdentity(ctx, identity); err == nil {
			return models.ErrOracleAlreadyRegistered
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check oracle: %w", err)
		}

		oracle = &models.Oracle{Identity: identity, Name: req.Name}
		if err := repo.CreateOracle(ctx, oracle); err != nil {
			return fmt.Errorf("failed to create oracle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("oracle registered", logger.Fields{
		"identity": identity.String(),
		"name":     req.Name,
	})
	return toOracleResponse(oracle), nil
}

func (s *service) SubmitVote(ctx context.Context, callerID uuid.UUID, marketRef string, req *VoteRequest) (*VoteResponse, error) {
	outcome, err := parseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}
	if !models.ValidMarketRef(marketRef) {
		return nil, models.ErrInvalidMarketRef
	}

	var resp *VoteResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		market, err := repo.GetMarketByRef(ctx, marketRef)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrMarketNotFound
		} else if err != nil {
			return fmt.Errorf("failed to load market: %w", err)
		}

		oracle, err := repo.GetOracleByIdentity(ctx, callerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrOracleNotRegistered
		} else if err != nil {
			return fmt.Errorf("failed to load oracle: %w", err)
		}

		if _, err := repo.GetDecision(ctx, market.ID); err == nil {
			return models.ErrVotingClosed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check decision: %w", err)
		}

		if _, err := repo.GetVote(ctx, market.ID, oracle.ID); err == nil {
			return models.ErrDuplicateVote
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check vote: %w", err)
		}

		if err := repo.CreateVote(ctx, &models.OracleVote{
			MarketID: market.ID,
			OracleID: oracle.ID,
			Outcome:  outcome,
		}); err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}

		tally, err := s.tally(ctx, repo, market.ID)
		if err != nil {
			return err
		}

		if won, winner := s.evaluate(tally.YesVotes, tally.NoVotes); won {
			if err := repo.CreateDecision(ctx, &models.ConsensusDecision{
				MarketID: market.ID,
				Outcome:  winner,
				YesVotes: int(tally.YesVotes),
				NoVotes:  int(tally.NoVotes),
			}); err != nil {
				return fmt.Errorf("failed to persist decision: %w", err)
			}
			tally.ConsensusReached = true
			label := outcomeLabel(winner)
			tally.ConsensusOutcome = &label

			s.log.Info("consensus reached", logger.Fields{
				"market_ref": market.Ref,
				"outcome":    label,
				"yes_votes":  tally.YesVotes,
				"no_votes":   tally.NoVotes,
			})
		}

		resp = &VoteResponse{
			MarketRef: market.Ref,
			Outcome:   outcomeLabel(outcome),
			Tally:     tally,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) GetConsensus(ctx context.Context, marketRef string) (*ConsensusResponse, error) {
	if !models.ValidMarketRef(marketRef) {
		return nil, models.ErrInvalidMarketRef
	}
	market, err := s.repo.GetMarketByRef(ctx, marketRef)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrMarketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load market: %w", err)
	}

	decision, err := s.repo.GetDecision(ctx, market.ID)
	if err == nil {
		label := outcomeLabel(decision.Outcome)
		return &ConsensusResponse{
			MarketRef: market.Ref,
			Tally: Tally{
				YesVotes:         int64(decision.YesVotes),
				NoVotes:          int64(decision.NoVotes),
				ConsensusReached: true,
				ConsensusOutcome: &label,
			},
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load decision: %w", err)
	}

	tally, err := s.tally(ctx, s.repo, market.ID)
	if err != nil {
		return nil, err
	}
	return &ConsensusResponse{MarketRef: market.Ref, Tally: tally}, nil
}

func (s *service) ConsensusOutcome(ctx context.Context, marketID uuid.UUID) (int16, error) {
	decision, err := s.repo.GetDecision(ctx, marketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, models.ErrConsensusNotReached
	} else if err != nil {
		return 0, fmt.Errorf("failed to load decision: %w", err)
	}
	return decision.Outcome, nil
}

func (s *service) tally(ctx context.Context, repo Repository, marketID uuid.UUID) (Tally, error) {
	yes, err := repo.CountVotes(ctx, marketID, models.OutcomeYes)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to count yes votes: %w", err)
	}
	no, err := repo.CountVotes(ctx, marketID, models.OutcomeNo)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to count no votes: %w", err)
	}
	return Tally{YesVotes: yes, NoVotes: no}, nil
}

// evaluate applies the consensus rule: a side wins when it holds at least
// the threshold and strictly outnumbers the other side. A tie never settles.
func (s *service) evaluate(yes, no int64) (bool, int16) {
	threshold := int64(s.config.Threshold)
	if yes >= threshold && yes > no {
		return true, models.OutcomeYes
	}
	if no >= threshold && no > yes {
		return true, models.OutcomeNo
	}
	return false, 0
}
