package amm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openpredict/settlement/app/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePool funds a new pool for a market the caller wants to make tradable.
func (h *Handler) CreatePool(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.CreatePool(c.Request.Context(), principal, &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.CreatedResponse(c, "Pool created", resp)
}

// Buy purchases outcome shares from the market's pool.
func (h *Handler) Buy(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.Buy(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Shares purchased", resp)
}

// Sell returns outcome shares to the market's pool.
func (h *Handler) Sell(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.Sell(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Shares sold", resp)
}

// AddLiquidity deposits tokens across both reserves at the current ratio.
func (h *Handler) AddLiquidity(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req AddLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.AddLiquidity(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Liquidity added", resp)
}

// RemoveLiquidity burns liquidity shares for a proportional withdrawal.
func (h *Handler) RemoveLiquidity(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req RemoveLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.RemoveLiquidity(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Liquidity removed", resp)
}

// GetOdds quotes both sides' implied odds in basis points.
func (h *Handler) GetOdds(c *gin.Context) {
	resp, err := h.service.GetOdds(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Odds retrieved", resp)
}

// GetPool returns the pool's full public state.
func (h *Handler) GetPool(c *gin.Context) {
	resp, err := h.service.GetPool(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Pool retrieved", resp)
}
