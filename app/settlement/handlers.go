package settlement

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/app/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

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

// CreateMarket registers a new binary market.
func (h *Handler) CreateMarket(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.CreateMarket(c.Request.Context(), principal, &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.CreatedResponse(c, "Market created", resp)
}

// GetMarket returns one market's lifecycle state.
func (h *Handler) GetMarket(c *gin.Context) {
	resp, err := h.service.GetMarket(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Market retrieved", resp)
}

// ListMarkets pages through markets, optionally filtered by status.
func (h *Handler) ListMarkets(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	resp, err := h.service.ListMarkets(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Markets retrieved", resp)
}

// CloseMarket pushes a market past its closing time.
func (h *Handler) CloseMarket(c *gin.Context) {
	resp, err := h.service.CloseMarket(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Market closed", resp)
}

// ResolveMarket settles a closed market with the oracle consensus.
func (h *Handler) ResolveMarket(c *gin.Context) {
	resp, err := h.service.ResolveMarket(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Market resolved", resp)
}

// Claim pays out the caller's winning position.
func (h *Handler) Claim(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	resp, err := h.service.Claim(c.Request.Context(), principal, c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Winnings claimed", resp)
}

// Commit escrows a hidden stake for the caller.
func (h *Handler) Commit(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.Commit(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.CreatedResponse(c, "Commitment recorded", resp)
}

// Reveal opens the caller's commitment.
func (h *Handler) Reveal(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.Reveal(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Commitment revealed", resp)
}
