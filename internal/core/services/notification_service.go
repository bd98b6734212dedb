package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/dto"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/google/uuid"
)

// NotificationService stores and lists member notifications. Delivery is
// fire-and-forget: failures are logged and never propagated into ledger or
// vote state.
type NotificationService struct {
	NotificationRepository portsrepo.NotificationRepositoryFacade
	GroupRepository        portsrepo.GroupRepositoryFacade
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repos *portsrepo.RepositoryProvider) *NotificationService {
	return &NotificationService{
		NotificationRepository: repos.Notification,
		GroupRepository:        repos.Group,
	}
}

// NotifyMember stores a notification for one member.
func (s *NotificationService) NotifyMember(ctx context.Context, memberID string, groupID string, message string, category domain.NotificationCategory) {
	logger := middleware.GetLoggerFromCtx(ctx)

	notification := domain.Notification{
		NotificationID: uuid.NewString(),
		MemberID:       memberID,
		GroupID:        groupID,
		Message:        message,
		Category:       category,
		CreatedAt:      time.Now(),
	}
	if err := s.NotificationRepository.SaveNotifications(ctx, []domain.Notification{notification}); err != nil {
		logger.Warn("Failed to save notification",
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
		)
	}
}

// NotifyGroup fans the message out to every current group member in one
// batch insert.
func (s *NotificationService) NotifyGroup(ctx context.Context, groupID string, message string, category domain.NotificationCategory) {
	logger := middleware.GetLoggerFromCtx(ctx)

	members, err := s.GroupRepository.ListGroupMembers(ctx, groupID)
	if err != nil {
		logger.Warn("Failed to list members for group notification",
			slog.String("group_id", groupID),
			slog.String("error", err.Error()),
		)
		return
	}

	now := time.Now()
	notifications := make([]domain.Notification, len(members))
	for i, member := range members {
		notifications[i] = domain.Notification{
			NotificationID: uuid.NewString(),
			MemberID:       member.MemberID,
			GroupID:        groupID,
			Message:        message,
			Category:       category,
			CreatedAt:      now,
		}
	}
	if err := s.NotificationRepository.SaveNotifications(ctx, notifications); err != nil {
		logger.Warn("Failed to save group notifications",
			slog.String("group_id", groupID),
			slog.String("error", err.Error()),
		)
	}
}

// ListMemberNotifications returns the member's notifications, newest first.
func (s *NotificationService) ListMemberNotifications(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	notifications, err := s.NotificationRepository.ListByMember(ctx, memberID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.NotificationResponse, len(notifications))
	for i := range notifications {
		responses[i] = dto.ToNotificationResponse(&notifications[i])
	}
	return responses, nil
}

// MarkRead flags a notification as read for its owning member.
func (s *NotificationService) MarkRead(ctx context.Context, memberID string, notificationID string) error {
	return s.NotificationRepository.MarkRead(ctx, notificationID, memberID)
}
