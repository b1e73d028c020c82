package oracle

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

// RegisterOracle adds an attestor identity to the registry. Admin only.
func (h *Handler) RegisterOracle(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req RegisterOracleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.RegisterOracle(c.Request.Context(), principal, &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.CreatedResponse(c, "Oracle registered", resp)
}

// SubmitVote records the caller's binding attestation for a market.
func (h *Handler) SubmitVote(c *gin.Context) {
	principal, ok := api.Principal(c)
	if !ok {
		api.UnauthorizedResponse(c)
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ValidationErrorResponse(c, err.Error())
		return
	}

	resp, err := h.service.SubmitVote(c.Request.Context(), principal, c.Param("ref"), &req)
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.CreatedResponse(c, "Vote recorded", resp)
}

// GetConsensus returns the market's vote standing and decision, if any.
func (h *Handler) GetConsensus(c *gin.Context) {
	resp, err := h.service.GetConsensus(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.MapErrorResponse(c, err)
		return
	}
	api.SuccessResponse(c, http.StatusOK, "Consensus retrieved", resp)
}
