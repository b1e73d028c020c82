package models

import "errors"

// Validation errors: the caller sent something malformed.
var (
	ErrInvalidMarketRef   = errors.New("invalid market reference")
	ErrInvalidOutcome     = errors.New("outcome must be 0 (NO) or 1 (YES)")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidShares      = errors.New("shares must be greater than zero")
	ErrInvalidCommitHash  = errors.New("invalid commitment hash")
	ErrInvalidCloseTime   = errors.New("invalid closing time")
	ErrInvalidResolveTime = errors.New("invalid resolution time")
)

// State errors: the entity exists in the wrong phase, or not at all.
var (
	ErrMarketNotFound        = errors.New("market not found")
	ErrMarketAlreadyExists   = errors.New("market already exists")
	ErrPoolNotFound          = errors.New("pool does not exist")
	ErrPoolAlreadyExists     = errors.New("pool already exists")
	ErrMarketNotOpen         = errors.New("market is not open")
	ErrMarketNotClosed       = errors.New("market is not closed")
	ErrMarketNotResolved     = errors.New("market is not resolved")
	ErrMarketAlreadyResolved = errors.New("market already resolved")
	ErrTooEarlyToClose       = errors.New("cannot close market before closing time")
	ErrTooEarlyToResolve     = errors.New("cannot resolve market before resolution time")
)

// Auth errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Economic errors: valid request, but the market says no.
var (
	ErrSlippageExceeded     = errors.New("slippage tolerance exceeded")
	ErrCannotDrainPool      = errors.New("cannot drain pool completely")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientShares   = errors.New("insufficient shares")
	ErrAmountTooSmall       = errors.New("withdrawal amount too small")
	ErrLiquidityCapExceeded = errors.New("liquidity cap exceeded")
	ErrNoWinners            = errors.New("no winners to pay")
	ErrZeroPayout           = errors.New("net payout is zero")
	ErrNoPosition           = errors.New("no position for this market")
	ErrNotWinner            = errors.New("position is not on the winning side")
	ErrAlreadyClaimed       = errors.New("winnings already claimed")
)

// Consensus errors.
var (
	ErrInvalidOracleIdentity   = errors.New("invalid oracle identity")
	ErrOracleNotRegistered     = errors.New("oracle is not registered")
	ErrOracleAlreadyRegistered = errors.New("oracle already registered")
	ErrOracleLimitReached      = errors.New("maximum oracle limit reached")
	ErrDuplicateVote           = errors.New("oracle already voted for this market")
	ErrVotingClosed            = errors.New("consensus already decided, voting closed")
	ErrConsensusNotReached     = errors.New("oracle consensus not reached")
)

// Commit-reveal errors.
var (
	ErrDuplicateCommitment = errors.New("user already committed to this market")
	ErrCommitmentNotFound  = errors.New("no commitment for this market")
	ErrAlreadyRevealed     = errors.New("commitment already revealed")
	ErrRevealMismatch      = errors.New("revealed values do not match commitment")
)

// ErrInvariantViolation marks arithmetic overflow, reserve regression, or
// any other condition that indicates a defect in the engine rather than a
// bad caller. It aborts the call like any other error but is logged loudly.
var ErrInvariantViolation = errors.New("settlement invariant violation")

var (
	ErrRecordNotFound                  = errors.New("record not found")
	ErrDatabaseCredentialNotConfigured = errors.New("database credentials not configured")
)
