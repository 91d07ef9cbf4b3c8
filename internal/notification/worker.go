package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "notification_workers"

	// DefaultBatchSize is the max messages per read.
	DefaultBatchSize = 100

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimInterval is how often to scan pending messages.
	DefaultClaimInterval = 10 * time.Second

	// DefaultClaimIdle is the idle time before reclaiming pending messages.
	DefaultClaimIdle = 30 * time.Second

	// DefaultMetricsInterval is how often to refresh queue depth metrics.
	DefaultMetricsInterval = 5 * time.Second
)

// ReminderTrigger handles one due reminder.
type ReminderTrigger interface {
	TriggerReminder(ctx context.Context, reminderID string) (*model.Notification, error)
}

// Worker consumes due reminders from the Redis stream.
type Worker struct {
	redis           *redis.Client
	trigger         ReminderTrigger
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	batchSize       int
	blockTimeout    time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	metricsInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastMetrics     time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a reminder worker.
func NewWorker(client *redis.Client, trigger ReminderTrigger, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:           client,
		trigger:         trigger,
		logger:          logger.With("component", "notification.worker", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// SetClaimIdle overrides the default pending idle threshold.
func (w *Worker) SetClaimIdle(idle time.Duration) {
	if idle > 0 {
		w.claimIdle = idle
	}
}

// Run starts the worker loop. Blocks until the context is cancelled or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("notification worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()
		if draining {
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopping")
			return nil
		default:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

// Shutdown stops the worker after the in-flight batch.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		w.logger.Info("notification worker shutdown complete")
		return nil
	case <-ctx.Done():
		w.logger.Warn("notification worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	messages, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}

	acks := make([]string, 0, len(messages))
	for _, msg := range messages {
		if w.handle(ctx, msg) {
			acks = append(acks, msg.ID)
		}
	}
	return w.ackMessages(ctx, acks)
}

// handle processes one message and reports whether it may be acknowledged.
// Transient failures stay pending and are reclaimed later.
func (w *Worker) handle(ctx context.Context, msg redis.XMessage) bool {
	reminder, reason, err := decodeMessage(msg)
	if err != nil {
		w.deadLetterMessage(ctx, msg, reason, err.Error())
		return true
	}

	n, err := w.trigger.TriggerReminder(ctx, reminder.ReminderID)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Status() == http.StatusNotFound {
			w.deadLetterMessage(ctx, msg, "not_found", appErr.Message)
			return true
		}
		w.logger.Error("reminder trigger failed",
			"message_id", msg.ID,
			"reminder_id", reminder.ReminderID,
			"error", err,
		)
		w.metrics.IncNotificationProcessed("failed")
		return false
	}

	w.logger.Info("reminder notification created",
		"reminder_id", reminder.ReminderID,
		"notification_id", n.ID,
		"user_id", n.UserID,
	)
	w.metrics.IncNotificationProcessed("success")
	return true
}

// decodeMessage returns the payload or a dead-letter reason.
func decodeMessage(msg redis.XMessage) (ReminderMessage, string, error) {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		return ReminderMessage{}, "invalid_format", errors.New("payload field missing or not a string")
	}

	var reminder ReminderMessage
	if err := json.Unmarshal([]byte(payload), &reminder); err != nil {
		return ReminderMessage{}, "unmarshal_error", err
	}
	if err := ValidateReminderMessage(reminder); err != nil {
		return ReminderMessage{}, "validation_error", err
	}
	return reminder, "", nil
}

func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}

	w.lastClaim = time.Now()
	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if w.metricsInterval <= 0 {
		return
	}
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			w.metrics.SetReminderQueueDepth(group.Pending + group.Lag)
			return
		}
	}
}

func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	return streams[0].Messages, nil
}

func (w *Worker) deadLetterMessage(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering reminder message",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"original_stream":  StreamKey,
			"reason":           reason,
			"detail":           detail,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write to dead-letter queue", "message_id", msg.ID, "error", err)
	}

	w.metrics.IncNotificationProcessed("dead_lettered")
}

func (w *Worker) ackMessages(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
