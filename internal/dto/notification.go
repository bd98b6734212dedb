package dto

import (
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
)

// NotificationResponse is the API view of a member notification.
type NotificationResponse struct {
	NotificationID string    `json:"notificationID"`
	Message        string    `json:"message"`
	Category       string    `json:"category"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToNotificationResponse converts a domain.Notification to its API view.
func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		NotificationID: n.NotificationID,
		Message:        n.Message,
		Category:       string(n.Category),
		Read:           n.Read,
		CreatedAt:      n.CreatedAt,
	}
}
