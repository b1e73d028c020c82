package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/models"
)

// MapErrorResponse translates a service error into the HTTP response for it.
// Unrecognized errors, including invariant violations, surface as 500s; the
// caller is expected to have logged those already.
func MapErrorResponse(c *gin.Context, err error) {
	switch {
	case isValidationError(err):
		ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case isNotFoundError(err):
		ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case isConflictError(err):
		ErrorResponse(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case isEconomicError(err):
		ErrorResponse(c, http.StatusUnprocessableEntity, "REJECTED", err.Error(), nil)
	case errors.Is(err, models.ErrUnauthorized):
		UnauthorizedResponse(c)
	case errors.Is(err, models.ErrForbidden):
		ForbiddenResponse(c, err.Error())
	default:
		InternalErrorResponse(c, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		models.ErrInvalidMarketRef,
		models.ErrInvalidOutcome,
		models.ErrInvalidAmount,
		models.ErrInvalidShares,
		models.ErrInvalidCommitHash,
		models.ErrInvalidOracleIdentity,
		models.ErrInvalidCloseTime,
		models.ErrInvalidResolveTime,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	for _, target := range []error{
		models.ErrMarketNotFound,
		models.ErrPoolNotFound,
		models.ErrNoPosition,
		models.ErrCommitmentNotFound,
		models.ErrOracleNotRegistered,
		models.ErrRecordNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflictError(err error) bool {
	for _, target := range []error{
		models.ErrMarketAlreadyExists,
		models.ErrPoolAlreadyExists,
		models.ErrMarketNotOpen,
		models.ErrMarketNotClosed,
		models.ErrMarketNotResolved,
		models.ErrMarketAlreadyResolved,
		models.ErrTooEarlyToClose,
		models.ErrTooEarlyToResolve,
		models.ErrOracleAlreadyRegistered,
		models.ErrOracleLimitReached,
		models.ErrDuplicateVote,
		models.ErrVotingClosed,
		models.ErrDuplicateCommitment,
		models.ErrAlreadyRevealed,
		models.ErrAlreadyClaimed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isEconomicError(err error) bool {
	for _, target := range []error{
		models.ErrSlippageExceeded,
		models.ErrCannotDrainPool,
		models.ErrInsufficientBalance,
		models.ErrInsufficientShares,
		models.ErrAmountTooSmall,
		models.ErrLiquidityCapExceeded,
		models.ErrNoWinners,
		models.ErrZeroPayout,
		models.ErrNotWinner,
		models.ErrConsensusNotReached,
		models.ErrRevealMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
