package settlement

import (
	"time"

	"github.com/openpredict/settlement/models"
)

const (
	outcomeYes = "yes"
	outcomeNo  = "no"
)

func outcomeLabel(o int16) string {
	if o == models.OutcomeYes {
		return outcomeYes
	}
	return outcomeNo
}

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

type CreateMarketRequest struct {
	Ref            string    `json:"ref" binding:"required,len=64"`
	ClosingTime    time.Time `json:"closing_time" binding:"required"`
	ResolutionTime time.Time `json:"resolution_time" binding:"required"`
}

type MarketResponse struct {
	Ref            string    `json:"ref"`
	Status         string    `json:"status"`
	ClosingTime    time.Time `json:"closing_time"`
	ResolutionTime time.Time `json:"resolution_time"`

	WinningOutcome *string `json:"winning_outcome,omitempty"`
	WinnerPool     string  `json:"winner_pool,omitempty"`
	LoserPool      string  `json:"loser_pool,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ClaimResponse struct {
	MarketRef   string `json:"market_ref"`
	Outcome     string `json:"outcome"`
	GrossPayout string `json:"gross_payout"`
	Fee         string `json:"fee"`
	NetPayout   string `json:"net_payout"`
}

type CommitRequest struct {
	CommitHash string `json:"commit_hash" binding:"required,len=64"`
	Amount     string `json:"amount" binding:"required"`
}

type RevealRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=yes no"`
	Salt    string `json:"salt" binding:"required,max=128"`
}

type CommitmentResponse struct {
	MarketRef  string     `json:"market_ref"`
	Amount     string     `json:"amount"`
	Revealed   bool       `json:"revealed"`
	Outcome    string     `json:"outcome,omitempty"`
	RevealedAt *time.Time `json:"revealed_at,omitempty"`
}

func toMarketResponse(m *models.Market) *MarketResponse {
	resp := &MarketResponse{
		Ref:            m.Ref,
		Status:         string(m.Status),
		ClosingTime:    m.ClosingTime,
		ResolutionTime: m.ResolutionTime,
		ResolvedAt:     m.ResolvedAt,
		CreatedAt:      m.CreatedAt,
	}
	if m.WinningOutcome != nil {
		label := outcomeLabel(*m.WinningOutcome)
		resp.WinningOutcome = &label
	}
	if m.WinnerPool != nil {
		resp.WinnerPool = m.WinnerPool.String()
	}
	if m.LoserPool != nil {
		resp.LoserPool = m.LoserPool.String()
	}
	return resp
}
