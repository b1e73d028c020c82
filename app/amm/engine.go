package amm

import (
	"github.com/openpredict/settlement/internal/numeric"
	"github.com/openpredict/settlement/models"
)

const (
	bpsDenominator = 10_000
	oddsScale      = 10_000
)

// Engine holds the constant-product pricing math. It is pure: callers load
// reserves, ask for a plan, and persist the plan's new state themselves.
//
// Any arithmetic fault inside a plan is a defect in this engine or corrupted
// reserves, never caller error, so it surfaces as ErrInvariantViolation.
type Engine struct {
	feeBps numeric.U128
}

func NewEngine(feeBps uint64) *Engine {
	return &Engine{feeBps: numeric.FromUint64(feeBps)}
}

// TradePlan is the outcome of pricing a buy against current reserves.
type TradePlan struct {
	SharesOut     numeric.U128
	Fee           numeric.U128
	NewYesReserve numeric.U128
	NewNoReserve  numeric.U128
}

// SellPlan is the outcome of pricing a sell against current reserves.
type SellPlan struct {
	GrossPayout   numeric.U128
	Fee           numeric.U128
	NetPayout     numeric.U128
	NewYesReserve numeric.U128
	NewNoReserve  numeric.U128
}

// LiquidityPlan is the outcome of pricing a deposit or withdrawal.
type LiquidityPlan struct {
	Shares        numeric.U128 // minted on deposit, burned on withdrawal
	YesAmount     numeric.U128
	NoAmount      numeric.U128
	NewYesReserve numeric.U128
	NewNoReserve  numeric.U128
}

func invariant(err error) error {
	if err != nil {
		return models.ErrInvariantViolation
	}
	return nil
}

// SplitInitialLiquidity splits a new pool's funding 50/50 with integer floor
// division; an odd unit is dropped, not refunded. Each side must end up
// strictly positive.
func (e *Engine) SplitInitialLiquidity(total numeric.U128) (numeric.U128, error) {
	half, err := total.Div(numeric.FromUint64(2))
	if err != nil {
		return numeric.Zero(), models.ErrInvariantViolation
	}
	if half.IsZero() {
		return numeric.Zero(), models.ErrInvalidAmount
	}
	return half, nil
}

// PlanBuy prices a purchase of outcome shares. The input pays into the
// opposite reserve and shares are drawn from the outcome's own reserve:
//
//	sharesOut = floor(amountAfterFee * reserveOut / (reserveIn + amountAfterFee))
//
// The constant product must not regress for any fee >= 0; if it does, the
// plan is rejected as an invariant violation rather than a user error.
func (e *Engine) PlanBuy(yesReserve, noReserve numeric.U128, outcome int16, amountIn numeric.U128) (TradePlan, error) {
	fee, err := amountIn.MulDiv(e.feeBps, numeric.FromUint64(bpsDenominator))
	if err != nil {
		return TradePlan{}, invariant(err)
	}
	amountAfterFee, err := amountIn.Sub(fee)
	if err != nil {
		return TradePlan{}, invariant(err)
	}

	reserveIn, reserveOut := noReserve, yesReserve
	if outcome == models.OutcomeNo {
		reserveIn, reserveOut = yesReserve, noReserve
	}

	newReserveIn, err := reserveIn.Add(amountAfterFee)
	if err != nil {
		return TradePlan{}, invariant(err)
	}
	sharesOut, err := amountAfterFee.MulDiv(reserveOut, newReserveIn)
	if err != nil {
		return TradePlan{}, invariant(err)
	}
	newReserveOut, err := reserveOut.Sub(sharesOut)
	if err != nil {
		return TradePlan{}, invariant(err)
	}

	oldK, err := yesReserve.Mul(noReserve)
	if err != nil {
		return TradePlan{}, invariant(err)
	}
	newK, err := newReserveIn.Mul(newReserveOut)
	if err != nil {
		return TradePlan{}, invariant(err)
	}
	if newK.Lt(oldK) {
		return TradePlan{}, models.ErrInvariantViolation
	}

	plan := TradePlan{SharesOut: sharesOut, Fee: fee}
	if outcome == models.OutcomeYes {
		plan.NewYesReserve, plan.NewNoReserve = newReserveOut, newReserveIn
	} else {
		plan.NewYesReserve, plan.NewNoReserve = newReserveIn, newReserveOut
	}
	return plan, nil
}

// PlanSell prices a sale of outcome shares back to the pool. The shares join
// the outcome's own reserve and the payout is drawn from the opposite side
// by restoring the constant product:
//
//	newReserveIn  = reserveIn + sharesIn
//	newReserveOut = floor(k / newReserveIn)
//	grossPayout   = reserveOut - newReserveOut
//
// The fee is taken from the gross payout by not forwarding it to the seller.
// Both reserves must stay strictly positive.
func (e *Engine) PlanSell(yesReserve, noReserve numeric.U128, outcome int16, sharesIn numeric.U128) (SellPlan, error) {
	reserveIn, reserveOut := yesReserve, noReserve
	if outcome == models.OutcomeNo {
		reserveIn, reserveOut = noReserve, yesReserve
	}

	k, err := yesReserve.Mul(noReserve)
	if err != nil {
		return SellPlan{}, invariant(err)
	}
	newReserveIn, err := reserveIn.Add(sharesIn)
	if err != nil {
		return SellPlan{}, invariant(err)
	}
	newReserveOut, err := k.Div(newReserveIn)
	if err != nil {
		return SellPlan{}, invariant(err)
	}
	grossPayout, err := reserveOut.Sub(newReserveOut)
	if err != nil {
		return SellPlan{}, invariant(err)
	}

	if newReserveIn.IsZero() || newReserveOut.IsZero() {
		return SellPlan{}, models.ErrCannotDrainPool
	}

	fee, err := grossPayout.MulDiv(e.feeBps, numeric.FromUint64(bpsDenominator))
	if err != nil {
		return SellPlan{}, invariant(err)
	}
	netPayout, err := grossPayout.Sub(fee)
	if err != nil {
		return SellPlan{}, invariant(err)
	}

	plan := SellPlan{GrossPayout: grossPayout, Fee: fee, NetPayout: netPayout}
	if outcome == models.OutcomeYes {
		plan.NewYesReserve, plan.NewNoReserve = newReserveIn, newReserveOut
	} else {
		plan.NewYesReserve, plan.NewNoReserve = newReserveOut, newReserveIn
	}
	return plan, nil
}

// Odds returns (yesOdds, noOdds) in basis points, always summing to exactly
// 10000. AMM pricing inverts reserves: the heavier a side's reserve, the
// cheaper its shares, so each side's odds come from the opposite reserve.
// Rounding shortfall goes to the larger side, ties favoring YES.
func (e *Engine) Odds(yesReserve, noReserve numeric.U128) (uint32, uint32, error) {
	if yesReserve.IsZero() && noReserve.IsZero() {
		return 5000, 5000, nil
	}
	if yesReserve.IsZero() {
		return 0, oddsScale, nil
	}
	if noReserve.IsZero() {
		return oddsScale, 0, nil
	}

	total, err := yesReserve.Add(noReserve)
	if err != nil {
		return 0, 0, invariant(err)
	}
	yesPart, err := noReserve.MulDiv(numeric.FromUint64(oddsScale), total)
	if err != nil {
		return 0, 0, invariant(err)
	}
	noPart, err := yesReserve.MulDiv(numeric.FromUint64(oddsScale), total)
	if err != nil {
		return 0, 0, invariant(err)
	}

	yesOdds := uint32(yesPart.Decimal().IntPart())
	noOdds := uint32(noPart.Decimal().IntPart())

	if shortfall := uint32(oddsScale) - yesOdds - noOdds; shortfall != 0 {
		if yesOdds >= noOdds {
			yesOdds += shortfall
		} else {
			noOdds += shortfall
		}
	}
	return yesOdds, noOdds, nil
}

// PlanAddLiquidity prices a proportional deposit. Share minting uses the
// pre-deposit state; the deposit splits across reserves preserving the
// current ratio.
func (e *Engine) PlanAddLiquidity(yesReserve, noReserve, totalShares, amount numeric.U128) (LiquidityPlan, error) {
	total, err := yesReserve.Add(noReserve)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	minted, err := amount.MulDiv(totalShares, total)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}

	yesIn, err := amount.MulDiv(yesReserve, total)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	noIn, err := amount.Sub(yesIn)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}

	newYes, err := yesReserve.Add(yesIn)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	newNo, err := noReserve.Add(noIn)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}

	return LiquidityPlan{
		Shares:        minted,
		YesAmount:     yesIn,
		NoAmount:      noIn,
		NewYesReserve: newYes,
		NewNoReserve:  newNo,
	}, nil
}

// PlanRemoveLiquidity prices a proportional withdrawal. Either side rounding
// to zero rejects the redemption as too small, and a withdrawal that would
// empty a reserve is refused outright.
func (e *Engine) PlanRemoveLiquidity(yesReserve, noReserve, totalShares, shares numeric.U128) (LiquidityPlan, error) {
	yesOut, err := shares.MulDiv(yesReserve, totalShares)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	noOut, err := shares.MulDiv(noReserve, totalShares)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	if yesOut.IsZero() || noOut.IsZero() {
		return LiquidityPlan{}, models.ErrAmountTooSmall
	}

	newYes, err := yesReserve.Sub(yesOut)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	newNo, err := noReserve.Sub(noOut)
	if err != nil {
		return LiquidityPlan{}, invariant(err)
	}
	if newYes.IsZero() || newNo.IsZero() {
		return LiquidityPlan{}, models.ErrCannotDrainPool
	}

	return LiquidityPlan{
		Shares:        shares,
		YesAmount:     yesOut,
		NoAmount:      noOut,
		NewYesReserve: newYes,
		NewNoReserve:  newNo,
	}, nil
}
