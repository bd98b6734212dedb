package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chamahub/treasury/internal/core/domain"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/gin-gonic/gin"
)

// withdrawalHandler handles HTTP requests for the withdrawal consensus flow.
type withdrawalHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
}

func newWithdrawalHandler(ws portssvc.WithdrawalSvcFacade) *withdrawalHandler {
	return &withdrawalHandler{withdrawalService: ws}
}

// registerWithdrawalRoutes registers routes related to withdrawals.
func registerWithdrawalRoutes(rg *gin.RouterGroup, withdrawalService portssvc.WithdrawalSvcFacade) {
	h := newWithdrawalHandler(withdrawalService)

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.POST("", h.createWithdrawal)
		withdrawals.GET("", h.listWithdrawals)
		withdrawals.POST("/:withdrawalID/votes", h.castVote)
		withdrawals.DELETE("/:withdrawalID", h.cancelWithdrawal)
	}
}

// createWithdrawal godoc
// @Summary Open a withdrawal request
// @Description Opens a withdrawal for group vote; admin only, one pending request per group
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   withdrawal body dto.CreateWithdrawalRequest true "Amount and reason"
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the group admin"
// @Failure 409 {object} map[string]string "A pending request already exists"
// @Failure 422 {object} map[string]string "Amount exceeds cash at hand"
// @Security BearerAuth
// @Router /withdrawals [post]
func (h *withdrawalHandler) createWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	groupID, ok := middleware.GetGroupIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received withdrawal request", slog.String("amount", req.Amount.String()))

	request, err := h.withdrawalService.CreateRequest(c.Request.Context(), groupID, memberID, req.Amount, req.Reason)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create withdrawal request")
		return
	}

	logger.Info("Withdrawal request opened", slog.String("withdrawal_id", request.WithdrawalID))
	resp := dto.ToWithdrawalResponse(request, nil)
	resp.Amount = req.Amount
	resp.Reason = req.Reason
	c.JSON(http.StatusCreated, resp)
}

// listWithdrawals godoc
// @Summary List the group's withdrawal requests
// @Description Returns the group's withdrawal requests, newest first
// @Tags withdrawals
// @Produce  json
// @Success 200 {array} dto.WithdrawalResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list withdrawals"
// @Security BearerAuth
// @Router /withdrawals [get]
func (h *withdrawalHandler) listWithdrawals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	groupID, ok := middleware.GetGroupIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	withdrawals, err := h.withdrawalService.ListGroupWithdrawals(c.Request.Context(), groupID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list withdrawals")
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// castVote godoc
// @Summary Vote on a pending withdrawal
// @Description Records the caller's vote; on strict-majority approval the payout is dispatched
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   withdrawalID path string true "Withdrawal request ID"
// @Param   vote body dto.CastVoteRequest true "APPROVE or REJECT"
// @Success 200 {object} dto.VoteResultResponse
// @Failure 400 {object} map[string]string "Invalid choice"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Voter is not a group member"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Request no longer pending or voter already voted"
// @Security BearerAuth
// @Router /withdrawals/{withdrawalID}/votes [post]
func (h *withdrawalHandler) castVote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	withdrawalID := c.Param("withdrawalID")

	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CastVote", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	groupID, ok := middleware.GetGroupIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("withdrawal_id", withdrawalID))
	logger.Info("Received vote", slog.String("choice", req.Choice))

	result, err := h.withdrawalService.CastVote(c.Request.Context(), groupID, withdrawalID, memberID, domain.VoteChoice(req.Choice))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to record vote")
		return
	}

	logger.Info("Vote recorded", slog.String("status", result.Status))
	c.JSON(http.StatusOK, result)
}

// cancelWithdrawal godoc
// @Summary Cancel a pending withdrawal
// @Description Terminates a pending withdrawal request; admin only
// @Tags withdrawals
// @Produce  json
// @Param   withdrawalID path string true "Withdrawal request ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the group admin"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Request no longer pending"
// @Security BearerAuth
// @Router /withdrawals/{withdrawalID} [delete]
func (h *withdrawalHandler) cancelWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	withdrawalID := c.Param("withdrawalID")

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	groupID, ok := middleware.GetGroupIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.withdrawalService.Cancel(c.Request.Context(), groupID, withdrawalID, memberID); err != nil {
		handleServiceError(c, logger, err, "Failed to cancel withdrawal")
		return
	}

	logger.Info("Withdrawal cancelled", slog.String("withdrawal_id", withdrawalID))
	c.Status(http.StatusNoContent)
}
