package pgsql

import (
	"context"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	portsrepo "github.com/chamahub/treasury/internal/core/ports/repositories"
	"github.com/chamahub/treasury/internal/models"
	"github.com/chamahub/treasury/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// PgxNotificationRepository persists member notifications.
type PgxNotificationRepository struct {
	BaseRepository
}

// NewPgxNotificationRepository creates a new repository for notifications.
func NewPgxNotificationRepository(pool DBPool) portsrepo.NotificationRepositoryFacade {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepositoryFacade = (*PgxNotificationRepository)(nil)

const insertNotificationQuery = `
	INSERT INTO notifications (notification_id, member_id, group_id, message, category, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

// SaveNotifications inserts a batch of notifications in one round trip.
func (r *PgxNotificationRepository) SaveNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(insertNotificationQuery,
			n.NotificationID, n.MemberID, n.GroupID, n.Message,
			string(n.Category), n.Read, n.CreatedAt,
		)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	results := tx.SendBatch(ctx, batch)
	for range notifications {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return apperrors.NewAppError(500, "failed to insert notification batch", err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close notification batch", err)
	}

	return r.Commit(ctx, tx)
}

// ListByMember returns the member's notifications, newest first.
func (r *PgxNotificationRepository) ListByMember(ctx context.Context, memberID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT notification_id, member_id, group_id, message, category, read, created_at FROM notifications WHERE member_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query notifications", err)
	}
	defer rows.Close()

	notifications := []domain.Notification{}
	for rows.Next() {
		var m models.Notification
		if err := rows.Scan(&m.NotificationID, &m.MemberID, &m.GroupID, &m.Message, &m.Category, &m.Read, &m.CreatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan notification row", err)
		}
		notifications = append(notifications, mapping.ToDomainNotification(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating notification rows", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read for its owning member.
func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID string, memberID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE notification_id = $1 AND member_id = $2;`
	tag, err := r.Pool.Exec(ctx, query, notificationID, memberID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
