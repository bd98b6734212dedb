package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/gin-gonic/gin"
)

// notificationHandler handles HTTP requests for member notifications.
type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

func newNotificationHandler(ns portssvc.NotificationSvcFacade) *notificationHandler {
	return &notificationHandler{notificationService: ns}
}

// registerNotificationRoutes registers routes related to notifications.
func registerNotificationRoutes(rg *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	h := newNotificationHandler(notificationService)

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.listNotifications)
		notifications.POST("/:notificationID/read", h.markRead)
	}
}

// listNotifications godoc
// @Summary List the caller's notifications
// @Description Returns the caller's notifications, newest first
// @Tags notifications
// @Produce  json
// @Param   unread query bool false "Only unread notifications" default(false)
// @Param   limit query int false "Limit number of results" default(50)
// @Success 200 {array} dto.NotificationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list notifications"
// @Security BearerAuth
// @Router /notifications [get]
func (h *notificationHandler) listNotifications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	unreadOnly := c.DefaultQuery("unread", "false") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notificationService.ListMemberNotifications(c.Request.Context(), memberID, unreadOnly, limit)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// markRead godoc
// @Summary Mark a notification read
// @Description Marks one of the caller's notifications as read
// @Tags notifications
// @Produce  json
// @Param   notificationID path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Notification not found"
// @Security BearerAuth
// @Router /notifications/{notificationID}/read [post]
func (h *notificationHandler) markRead(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	notificationID := c.Param("notificationID")

	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), memberID, notificationID); err != nil {
		handleServiceError(c, logger, err, "Failed to mark notification read")
		return
	}

	logger.Info("Notification marked read", slog.String("notification_id", notificationID))
	c.Status(http.StatusNoContent)
}
