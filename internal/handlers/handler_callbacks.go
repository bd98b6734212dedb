package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// callbackHandler receives the asynchronous gateway callbacks. These routes
// are unauthenticated; idempotent reconciliation makes replays harmless.
type callbackHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newCallbackHandler(rs portssvc.ReconciliationSvcFacade) *callbackHandler {
	return &callbackHandler{reconciliationService: rs}
}

// registerCallbackRoutes registers the public gateway callback routes behind
// an IP rate limit.
func registerCallbackRoutes(r *gin.Engine, reconciliationService portssvc.ReconciliationSvcFacade, rateFormat string) {
	h := newCallbackHandler(reconciliationService)

	rate, err := limiter.NewRateFromFormatted(rateFormat)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("60-M")
	}
	ipLimiter := limiter.New(limitermemory.NewStore(), rate)

	callbacks := r.Group("/callbacks", middleware.RateLimit(ipLimiter))
	{
		callbacks.POST("/payment", h.paymentCallback)
		callbacks.POST("/b2c/result", h.b2cResultCallback)
	}
}

// gatewayAck is the acknowledgement shape Daraja expects; anything else makes
// the gateway retry.
func gatewayAck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// paymentCallback godoc
// @Summary STK push confirmation callback
// @Description Receives inbound payment confirmations from the gateway and reconciles them into the ledger
// @Tags callbacks
// @Accept  json
// @Produce  json
// @Param   callback body dto.StkCallbackEnvelope true "Gateway callback body"
// @Success 200 {object} map[string]interface{} "Acknowledged"
// @Failure 500 {object} map[string]string "Reconciliation failed, gateway will retry"
// @Router /callbacks/payment [post]
func (h *callbackHandler) paymentCallback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var envelope dto.StkCallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		logger.Warn("Unparseable payment callback", slog.String("error", err.Error()))
		gatewayAck(c)
		return
	}

	callback := envelope.Body.StkCallback
	if callback.ResultCode != 0 {
		// The member declined or the push timed out; nothing hit the ledger.
		logger.Info("Payment callback reports failure",
			slog.String("checkout_id", callback.CheckoutRequestID),
			slog.Int("result_code", callback.ResultCode),
			slog.String("result_desc", callback.ResultDesc),
		)
		gatewayAck(c)
		return
	}

	confirmation := dto.PaymentConfirmation{}
	for _, item := range callback.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			confirmation.Amount = decimalFromMetadata(item.Value)
		case "MpesaReceiptNumber":
			confirmation.Reference = stringFromMetadata(item.Value)
		case "PhoneNumber":
			confirmation.Phone = stringFromMetadata(item.Value)
		}
	}

	if err := h.reconciliationService.HandlePaymentConfirmation(c.Request.Context(), confirmation); err != nil {
		logger.Error("Payment reconciliation failed", slog.String("error", err.Error()), slog.String("reference", confirmation.Reference))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed"})
		return
	}

	gatewayAck(c)
}

// b2cResultCallback godoc
// @Summary B2C result callback
// @Description Receives outbound payment results from the gateway and resolves the matching withdrawal or loan disbursement
// @Tags callbacks
// @Accept  json
// @Produce  json
// @Param   callback body dto.B2CResultEnvelope true "Gateway result body"
// @Success 200 {object} map[string]interface{} "Acknowledged"
// @Failure 500 {object} map[string]string "Reconciliation failed, gateway will retry"
// @Router /callbacks/b2c/result [post]
func (h *callbackHandler) b2cResultCallback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var envelope dto.B2CResultEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		logger.Warn("Unparseable B2C result callback", slog.String("error", err.Error()))
		gatewayAck(c)
		return
	}

	result := dto.DisbursementResult{
		OriginatorReference: envelope.Result.OriginatorConversationID,
		ResultCode:          envelope.Result.ResultCode,
		ResultDescription:   envelope.Result.ResultDesc,
	}

	if err := h.reconciliationService.HandleDisbursementResult(c.Request.Context(), result); err != nil {
		logger.Error("Disbursement reconciliation failed", slog.String("error", err.Error()), slog.String("reference", result.OriginatorReference))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed"})
		return
	}

	gatewayAck(c)
}

// decimalFromMetadata coerces a callback metadata value into a decimal. The
// gateway sends amounts as JSON numbers.
func decimalFromMetadata(v any) decimal.Decimal {
	switch value := v.(type) {
	case float64:
		return decimal.NewFromFloat(value)
	case string:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// stringFromMetadata coerces a callback metadata value into a string. Phone
// numbers arrive as JSON numbers, receipts as strings.
func stringFromMetadata(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}
