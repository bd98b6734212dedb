package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chamahub/treasury/internal/apperrors"
	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/gin-gonic/gin"
)

// treasuryHandler handles HTTP requests for the group ledger and balances.
type treasuryHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newTreasuryHandler(ls portssvc.LedgerSvcFacade) *treasuryHandler {
	return &treasuryHandler{ledgerService: ls}
}

// registerTreasuryRoutes registers routes related to the group treasury.
func registerTreasuryRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newTreasuryHandler(ledgerService)

	treasury := rg.Group("/treasury")
	{
		treasury.POST("/contributions", h.contribute)
		treasury.GET("/contributions", h.listContributions)
		treasury.GET("/summary", h.getSummary)
	}
}

// contribute godoc
// @Summary Start a contribution
// @Description Triggers an STK push asking the caller to pay their contribution; the ledger is updated when the gateway confirms
// @Tags treasury
// @Accept  json
// @Produce  json
// @Param   contribution body dto.ContributeRequest true "Contribution amount"
// @Success 202 {object} dto.CollectionInitiatedResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "Gateway unavailable"
// @Security BearerAuth
// @Router /treasury/contributions [post]
func (h *treasuryHandler) contribute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Contribute", slog.String("error", err.Error()))
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

	checkoutID, err := h.ledgerService.InitiateContribution(c.Request.Context(), groupID, memberID, req.Amount)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to initiate contribution")
		return
	}

	logger.Info("Contribution initiated", slog.String("checkout_id", checkoutID))
	c.JSON(http.StatusAccepted, dto.CollectionInitiatedResponse{
		CheckoutRequestID: checkoutID,
		Message:           "Complete the payment on your handset",
	})
}

// listContributions godoc
// @Summary List the caller's contributions
// @Description Returns the caller's contribution ledger entries, newest first
// @Tags treasury
// @Produce  json
// @Param   limit query int false "Limit number of results" default(50)
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list contributions"
// @Security BearerAuth
// @Router /treasury/contributions [get]
func (h *treasuryHandler) listContributions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.ledgerService.ListContributions(c.Request.Context(), groupID, memberID, limit)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list contributions")
		return
	}

	c.JSON(http.StatusOK, entries)
}

// getSummary godoc
// @Summary Get the caller's treasury summary
// @Description Returns cash at hand, contribution totals, the caller's entitlement and outstanding loans
// @Tags treasury
// @Produce  json
// @Success 200 {object} dto.AccountSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute summary"
// @Security BearerAuth
// @Router /treasury/summary [get]
func (h *treasuryHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

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

	summary, err := h.ledgerService.AccountSummary(c.Request.Context(), groupID, memberID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to compute account summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleServiceError maps service sentinel errors onto HTTP statuses. The
// fallback message is returned for unclassified errors so internals never
// leak to the client.
func handleServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		logger.Warn("Insufficient funds", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrExternalGateway):
		logger.Error("Gateway error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
