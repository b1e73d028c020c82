package oracle

import (
	"time"

	"github.com/google/uuid"
	"github.com/openpredict/settlement/models"
)

const (
	outcomeYes = "yes"
	outcomeNo  = "no"
)

func parseOutcome(s string) (int16, error) {
	switch s {
	case outcomeYes:
		return models.OutcomeYes, nil
	case outcomeNo:
		return models.OutcomeNo, nil
	default:
		return 0, models.ErrInvalidOutcome
	}
}

func outcomeLabel(o int16) string {
	if o == models.OutcomeYes {
		return outcomeYes
	}
	return outcomeNo
}

type RegisterOracleRequest struct {
	Identity string `json:"identity" binding:"required,uuid"`
	Name     string `json:"name" binding:"required,max=64"`
}

type OracleResponse struct {
	ID        uuid.UUID `json:"id"`
	Identity  uuid.UUID `json:"identity"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type VoteRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=yes no"`
}

type VoteResponse struct {
	MarketRef string `json:"market_ref"`
	Outcome   string `json:"outcome"`
	Tally     Tally  `json:"tally"`
}

// Tally is the public vote standing for a market.
type Tally struct {
	YesVotes         int64   `json:"yes_votes"`
	NoVotes          int64   `json:"no_votes"`
	ConsensusReached bool    `json:"consensus_reached"`
	ConsensusOutcome *string `json:"consensus_outcome,omitempty"`
}

type ConsensusResponse struct {
	MarketRef string `json:"market_ref"`
	Tally     Tally  `json:"tally"`
}

func toOracleResponse(o *models.Oracle) *OracleResponse {
	return &OracleResponse{
		ID:        o.ID,
		Identity:  o.Identity,
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
	}
}
