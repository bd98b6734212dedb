package repositories

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
)

// NotificationRepositoryFacade defines persistence for member notifications.
type NotificationRepositoryFacade interface {
	// SaveNotifications inserts a batch of notifications in one round trip.
	SaveNotifications(ctx context.Context, notifications []domain.Notification) error

	ListByMember(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]domain.Notification, error)

	// MarkRead flags a notification as read for its owning member.
	MarkRead(ctx context.Context, notificationID string, memberID string) error
}
