package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/teamtodo/teamtodo/internal/model"
)

// CreateReminder inserts a reminder.
func (r *Repository) CreateReminder(ctx context.Context, rem *model.Reminder) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reminders (id, todo_id, method, remind_at) VALUES ($1, $2, $3, $4)`,
		rem.ID, rem.TodoID, rem.Method, rem.RemindAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// GetReminder retrieves a reminder by ID.
func (r *Repository) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	var rem model.Reminder
	err := r.db.QueryRow(ctx,
		`SELECT id, todo_id, method, remind_at FROM reminders WHERE id = $1`, id,
	).Scan(&rem.ID, &rem.TodoID, &rem.Method, &rem.RemindAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &rem, nil
}

// CreateNotification inserts a notification.
func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, description, url, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Title, n.Description, n.URL, n.IsRead, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotificationsByUser returns a user's notifications, newest first.
func (r *Repository) ListNotificationsByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, description, url, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.URL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
