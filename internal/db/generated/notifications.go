package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const notificationColumns = `id, user_id, kind, message, is_read, match_request_id, match_id, created_at`

func scanNotification(row interface{ Scan(...interface{}) error }) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Kind,
		&i.Message,
		&i.IsRead,
		&i.MatchRequestID,
		&i.MatchID,
		&i.CreatedAt,
	)
	return i, err
}

const createNotification = `
INSERT INTO notifications (user_id, kind, message, match_request_id, match_id)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + notificationColumns + `
`

type CreateNotificationParams struct {
	UserID         int64         `json:"user_id"`
	Kind           string        `json:"kind"`
	Message        string        `json:"message"`
	MatchRequestID sql.NullInt64 `json:"match_request_id"`
	MatchID        sql.NullInt64 `json:"match_id"`
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRowContext(ctx, createNotification,
		arg.UserID,
		arg.Kind,
		arg.Message,
		arg.MatchRequestID,
		arg.MatchID,
	)
	return scanNotification(row)
}

const countUnreadNotifications = `
SELECT COUNT(*) FROM notifications
WHERE user_id = ? AND is_read = 0
`

func (q *Queries) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUnreadNotifications, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listNotificationsForUser = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

type ListNotificationsForUserParams struct {
	UserID int64 `json:"user_id"`
	Limit  int64 `json:"limit"`
}

func (q *Queries) ListNotificationsForUser(ctx context.Context, arg ListNotificationsForUserParams) ([]Notification, error) {
	return q.listNotifications(ctx, listNotificationsForUser, arg.UserID, arg.Limit)
}

const listUnreadNotificationsForUser = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE user_id = ? AND is_read = 0
ORDER BY created_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListUnreadNotificationsForUser(ctx context.Context, arg ListNotificationsForUserParams) ([]Notification, error) {
	return q.listNotifications(ctx, listUnreadNotificationsForUser, arg.UserID, arg.Limit)
}

func (q *Queries) listNotifications(ctx context.Context, query string, userID, limit int64) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markNotificationRead = `
UPDATE notifications
SET is_read = 1
WHERE id = ? AND user_id = ?
RETURNING ` + notificationColumns + `
`

type MarkNotificationReadParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

// MarkNotificationRead returns sql.ErrNoRows when the notification does not
// belong to the user.
func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (Notification, error) {
	row := q.db.QueryRowContext(ctx, markNotificationRead, arg.ID, arg.UserID)
	return scanNotification(row)
}

const markAllNotificationsRead = `
UPDATE notifications
SET is_read = 1
WHERE user_id = ? AND is_read = 0
`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteReadNotificationsBefore = `
DELETE FROM notifications
WHERE is_read = 1 AND datetime(created_at) < datetime(?)
`

func (q *Queries) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteReadNotificationsBefore, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
