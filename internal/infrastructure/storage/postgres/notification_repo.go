package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/notify"
)

const notificationsTable = "notifications"

// NotificationRepo implements notify.Store.
type NotificationRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ notify.Store = (*NotificationRepo)(nil)

// NewNotificationRepo creates a notification repository.
func NewNotificationRepo(txm *TxManager) *NotificationRepo {
	return &NotificationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *notify.Notification) error {
	q := r.builder.Insert(notificationsTable).
		Columns("id", "user_id", "title", "message", "read", "created_at").
		Values(n.ID, n.UserID, n.Title, n.Message, n.Read, n.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID id.ID, limit, offset int) ([]*notify.Notification, int64, error) {
	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From(notificationsTable).
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	q := r.builder.Select("id", "user_id", "title", "message", "read", "created_at").
		From(notificationsTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var items []*notify.Notification
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID id.ID) error {
	q := r.builder.Update(notificationsTable).
		Set("read", true).
		Where(squirrel.Eq{"id": notificationID, "user_id": userID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("notification", notificationID)
	}
	return nil
}
