package notification

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// ReminderMessage is the stream payload announcing a due reminder.
type ReminderMessage struct {
	ReminderID string `json:"rid"`
	DueAt      int64  `json:"t"` // Unix milliseconds
}

// ValidateReminderMessage checks a decoded stream payload.
func ValidateReminderMessage(msg ReminderMessage) error {
	if msg.ReminderID == "" {
		return fmt.Errorf("reminder_id is required")
	}
	if _, err := ulid.ParseStrict(msg.ReminderID); err != nil {
		return fmt.Errorf("reminder_id is not a valid ulid: %w", err)
	}
	if msg.DueAt <= 0 {
		return fmt.Errorf("due_at must be set")
	}
	return nil
}
