package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, severity, title, message, related_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), string(n.Severity), n.Title, n.Message, nullID(n.RelatedID))
	if err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]core.Notification, error) {
	query := `SELECT notification_id, user_id, type, severity, title, message,
	                 COALESCE(related_id, 0), is_read, created_at
	          FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY is_read, created_at DESC, notification_id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []core.Notification{}
	for rows.Next() {
		var n core.Notification
		var typ, sev string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &sev, &n.Title, &n.Message,
			&n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = core.NotificationType(typ)
		n.Severity = core.Severity(sev)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadNotificationCounts returns the unread total and a per-type
// breakdown for the badge endpoint.
func (r *SQLiteRepository) UnreadNotificationCounts(ctx context.Context, userID int64) (int, map[core.NotificationType]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM notifications
		 WHERE user_id = ? AND is_read = 0
		 GROUP BY type`, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("count unread notifications: %w", err)
	}
	defer rows.Close()

	total := 0
	byType := map[core.NotificationType]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return 0, nil, fmt.Errorf("scan unread count: %w", err)
		}
		byType[core.NotificationType(typ)] = n
		total += n
	}
	return total, byType, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE notification_id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// HasNotificationSince reports whether an equivalent notification was
// already created after the cutoff. Used to avoid duplicate reminders
// within the same day.
func (r *SQLiteRepository) HasNotificationSince(ctx context.Context, userID int64, typ core.NotificationType, relatedID int64, since time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = ? AND type = ? AND COALESCE(related_id, 0) = ? AND created_at >= ?`,
		userID, string(typ), relatedID, core.FormatDateTime(since)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check notification dedup: %w", err)
	}
	return n > 0, nil
}

// PruneNotifications deletes read notifications older than the cutoff.
func (r *SQLiteRepository) PruneNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = 1 AND created_at < ?`, core.FormatDateTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
