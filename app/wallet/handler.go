package wallet

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/app/api"
	"github.com/openpredict/settlement/models"
)

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetBalance returns the caller's wallet balance.
func (h *Handler) GetBalance(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), principal)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}

	api.SuccessResponse(c, http.StatusOK, "Balance retrieved", BalanceResponse{
		OwnerID: principal,
		Balance: balance,
	})
}

// Deposit credits on-ramp funds to the caller's wallet.
func (h *Handler) Deposit(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		api.MapErrorResponse(c, models.ErrInvalidAmount)
		return
	}

	if err := h.service.Deposit(c.Request.Context(), principal, req.Amount, req.Reference); err != nil {
		api.MapErrorResponse(c, err)
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), principal)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}

	api.SuccessResponse(c, http.StatusOK, "Deposit applied", BalanceResponse{
		OwnerID: principal,
		Balance: balance,
	})
}

// GetTransactions lists the caller's ledger entries, newest first.
func (h *Handler) GetTransactions(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	transactions, err := h.service.Transactions(c.Request.Context(), principal, limit, offset)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}

	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = *ToTransactionResponse(&transactions[i])
	}
	api.SuccessResponse(c, http.StatusOK, "Transactions retrieved", responses)
}
