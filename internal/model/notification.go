package model

import "time"

// Reminder schedules a notification for a todo.
type Reminder struct {
	ID       string    `json:"id"`
	TodoID   string    `json:"todo_id"`
	Method   string    `json:"method"`
	RemindAt time.Time `json:"remind_at"`
}

// Notification is a message delivered to a user.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
