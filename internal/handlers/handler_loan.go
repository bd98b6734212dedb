package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/gin-gonic/gin"
)

// loanHandler handles HTTP requests related to loans.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

func newLoanHandler(ls portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{loanService: ls}
}

// registerLoanRoutes registers routes related to loans.
func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := newLoanHandler(loanService)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.requestLoan)
		loans.GET("", h.listLoans)
		loans.POST("/repayments", h.repayLoan)
	}
}

// requestLoan godoc
// @Summary Request a loan
// @Description Requests a loan against the caller's entitlement; disbursement is dispatched to the caller's phone
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loan body dto.RequestLoanRequest true "Loan amount"
// @Success 201 {object} dto.LoanResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Amount exceeds remaining entitlement"
// @Failure 502 {object} map[string]string "Disbursement dispatch failed"
// @Security BearerAuth
// @Router /loans [post]
func (h *loanHandler) requestLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RequestLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RequestLoan", slog.String("error", err.Error()))
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

	logger.Info("Received loan request", slog.String("amount", req.Amount.String()))

	loan, err := h.loanService.RequestLoan(c.Request.Context(), groupID, memberID, req.Amount)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to request loan")
		return
	}

	logger.Info("Loan requested successfully", slog.String("loan_id", loan.LoanID))
	c.JSON(http.StatusCreated, loan)
}

// listLoans godoc
// @Summary List the caller's loans
// @Description Returns the caller's loans with balances accrued to now
// @Tags loans
// @Produce  json
// @Success 200 {array} dto.LoanResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list loans"
// @Security BearerAuth
// @Router /loans [get]
func (h *loanHandler) listLoans(c *gin.Context) {
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

	loans, err := h.loanService.ListMemberLoans(c.Request.Context(), groupID, memberID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list loans")
		return
	}

	c.JSON(http.StatusOK, loans)
}

// repayLoan godoc
// @Summary Start a loan repayment
// @Description Triggers an STK push collecting the repayment; the loan balance changes when the gateway confirms
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   repayment body dto.RepayLoanRequest true "Repayment amount"
// @Success 202 {object} dto.CollectionInitiatedResponse
// @Failure 400 {object} map[string]string "Invalid input or amount exceeds balance"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No active loan"
// @Failure 502 {object} map[string]string "Gateway unavailable"
// @Security BearerAuth
// @Router /loans/repayments [post]
func (h *loanHandler) repayLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RepayLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RepayLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	checkoutID, err := h.loanService.InitiateRepayment(c.Request.Context(), memberID, req.Amount)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to initiate repayment")
		return
	}

	logger.Info("Repayment initiated", slog.String("checkout_id", checkoutID))
	c.JSON(http.StatusAccepted, dto.CollectionInitiatedResponse{
		CheckoutRequestID: checkoutID,
		Message:           "Complete the payment on your handset",
	})
}
