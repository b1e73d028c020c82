package amm

import (
	"github.com/shopspring/decimal"

	"github.com/openpredict/settlement/internal/numeric"
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

// parseAmount converts a decimal-string token amount into engine units. The
// wire format is a string because amounts may exceed int64.
func parseAmount(s string, invalid error) (numeric.U128, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return numeric.Zero(), invalid
	}
	v, err := numeric.FromDecimal(d)
	if err != nil {
		return numeric.Zero(), invalid
	}
	if v.IsZero() {
		return numeric.Zero(), invalid
	}
	return v, nil
}

// parseOptionalAmount is parseAmount for guard fields, where empty means "no
// guard" and zero is allowed.
func parseOptionalAmount(s string, invalid error) (numeric.U128, error) {
	if s == "" {
		return numeric.Zero(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return numeric.Zero(), invalid
	}
	v, err := numeric.FromDecimal(d)
	if err != nil {
		return numeric.Zero(), invalid
	}
	return v, nil
}

type CreatePoolRequest struct {
	MarketRef      string `json:"market_ref" binding:"required"`
	TotalLiquidity string `json:"total_liquidity" binding:"required"`
}

type BuyRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=yes no"`
	Amount  string `json:"amount" binding:"required"`

	// MinSharesOut aborts the trade if the fill is worse than quoted.
	MinSharesOut string `json:"min_shares_out"`
}

type SellRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=yes no"`
	Shares  string `json:"shares" binding:"required"`

	// MinPayout aborts the trade if the net payout is worse than quoted.
	MinPayout string `json:"min_payout"`
}

type AddLiquidityRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type RemoveLiquidityRequest struct {
	Shares string `json:"shares" binding:"required"`
}

type PoolResponse struct {
	MarketRef   string `json:"market_ref"`
	YesReserve  string `json:"yes_reserve"`
	NoReserve   string `json:"no_reserve"`
	TotalShares string `json:"total_shares"`
	YesVolume   string `json:"yes_volume"`
	NoVolume    string `json:"no_volume"`
	TradeCount  int64  `json:"trade_count"`
	YesOdds     uint32 `json:"yes_odds"`
	NoOdds      uint32 `json:"no_odds"`
}

type TradeResponse struct {
	MarketRef string `json:"market_ref"`
	Outcome   string `json:"outcome"`
	SharesOut string `json:"shares_out,omitempty"`
	Payout    string `json:"payout,omitempty"`
	Fee       string `json:"fee"`
	YesOdds   uint32 `json:"yes_odds"`
	NoOdds    uint32 `json:"no_odds"`
}

type LiquidityResponse struct {
	MarketRef   string `json:"market_ref"`
	Shares      string `json:"shares"`
	YesAmount   string `json:"yes_amount"`
	NoAmount    string `json:"no_amount"`
	TotalShares string `json:"total_shares"`
}

type OddsResponse struct {
	MarketRef string `json:"market_ref"`
	YesOdds   uint32 `json:"yes_odds"`
	NoOdds    uint32 `json:"no_odds"`
}

func poolResponse(market *models.Market, pool *models.Pool, yesOdds, noOdds uint32) *PoolResponse {
	return &PoolResponse{
		MarketRef:   market.Ref,
		YesReserve:  pool.YesReserve.String(),
		NoReserve:   pool.NoReserve.String(),
		TotalShares: pool.TotalShares.String(),
		YesVolume:   pool.YesVolume.String(),
		NoVolume:    pool.NoVolume.String(),
		TradeCount:  pool.TradeCount,
		YesOdds:     yesOdds,
		NoOdds:      noOdds,
	}
}
