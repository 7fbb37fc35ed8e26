package repository

import (
	"fmt"
	"time"

	"medimind/internal/database"
	"medimind/internal/models"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := r.db.Exec(query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.IsRead,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	n.CreatedAt = now
	return nil
}

// ListByUser retrieves notifications for a user, newest first
func (r *NotificationRepository) ListByUser(userID int64, includeRead bool, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
	`
	if !includeRead {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountUnread counts unread notifications for a user
func (r *NotificationRepository) CountUnread(userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`
	var count int64
	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks a notification as read
func (r *NotificationRepository) MarkAsRead(id int64, userID int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllAsRead marks all of a user's notifications as read
func (r *NotificationRepository) MarkAllAsRead(userID int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`
	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// DeleteOldRead deletes read notifications older than the given number of days
func (r *NotificationRepository) DeleteOldRead(daysOld int) error {
	query := `
		DELETE FROM notifications
		WHERE is_read = 1 AND created_at < datetime('now', ?)
	`
	_, err := r.db.Exec(query, fmt.Sprintf("-%d days", daysOld))
	if err != nil {
		return fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return nil
}
