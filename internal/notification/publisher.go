package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream carrying due reminders.
	StreamKey = "stream:reminders"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:reminders:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000
)

// Publisher enqueues due reminders. The scheduler that decides when a
// reminder is due lives outside this service; it only needs to call Publish.
type Publisher struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a reminder publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		logger: logger.With("component", "notification.publisher"),
	}
}

// Publish adds a due reminder to the stream and returns the stream ID.
func (p *Publisher) Publish(ctx context.Context, reminderID string, dueAt time.Time) (string, error) {
	msg := ReminderMessage{ReminderID: reminderID, DueAt: dueAt.UnixMilli()}
	if err := ValidateReminderMessage(msg); err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal reminder: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	p.logger.Debug("reminder published", "reminder_id", reminderID, "stream_id", id)
	return id, nil
}
