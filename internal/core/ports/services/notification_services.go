package services

import (
	"context"

	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/chamahub/treasury/internal/dto"
)

// NotificationSvcFacade delivers messages to members. All delivery is
// fire-and-forget: errors are logged by the implementation and never
// propagated into ledger or vote state.
type NotificationSvcFacade interface {
	NotifyMember(ctx context.Context, memberID string, groupID string, message string, category domain.NotificationCategory)

	// NotifyGroup fans the message out to every current group member.
	NotifyGroup(ctx context.Context, groupID string, message string, category domain.NotificationCategory)

	ListMemberNotifications(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]dto.NotificationResponse, error)

	MarkRead(ctx context.Context, memberID string, notificationID string) error
}
