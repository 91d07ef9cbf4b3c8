// Command remind stores a reminder for a todo and enqueues it on the
// reminder stream consumed by the API's notification worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/teamtodo/teamtodo/internal/cache"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/notification"
	"github.com/teamtodo/teamtodo/internal/repository"
)

type output struct {
	ReminderID string    `json:"reminder_id"`
	TodoID     string    `json:"todo_id"`
	Method     string    `json:"method"`
	RemindAt   time.Time `json:"remind_at"`
	StreamID   string    `json:"stream_id"`
}

type options struct {
	todoID string
	method string
	at     string
	format string
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string")
		opts        options
	)
	flag.StringVar(&opts.todoID, "todo-id", "", "Todo to remind about")
	flag.StringVar(&opts.method, "method", "PUSH", "Reminder method shown in the notification title")
	flag.StringVar(&opts.at, "at", "", "Due time (RFC3339); defaults to now")
	flag.StringVar(&opts.format, "format", "plain", "Output format: plain or json")
	flag.Parse()

	if *databaseURL == "" || *redisURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL and REDIS_URL are required")
		os.Exit(1)
	}

	rem, err := buildReminder(opts, time.Now().UTC())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	c, err := cache.New(ctx, *redisURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect redis:", err)
		os.Exit(1)
	}
	defer c.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	streamID, err := schedule(ctx, repo, notification.NewPublisher(c.Client(), logger), rem)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		ReminderID: rem.ID,
		TodoID:     rem.TodoID,
		Method:     rem.Method,
		RemindAt:   rem.RemindAt,
		StreamID:   streamID,
	}
	if err := render(os.Stdout, opts.format, out); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func buildReminder(opts options, now time.Time) (*model.Reminder, error) {
	todoID := strings.TrimSpace(opts.todoID)
	if todoID == "" {
		return nil, errors.New("todo-id is required")
	}
	method := strings.ToUpper(strings.TrimSpace(opts.method))
	if method == "" {
		return nil, errors.New("method must not be empty")
	}

	remindAt := now
	if opts.at != "" {
		parsed, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return nil, fmt.Errorf("invalid -at: %w", err)
		}
		remindAt = parsed.UTC()
	}

	return &model.Reminder{
		ID:       model.NewID(),
		TodoID:   todoID,
		Method:   method,
		RemindAt: remindAt,
	}, nil
}

type reminderStore interface {
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	CreateReminder(ctx context.Context, r *model.Reminder) error
}

type reminderPublisher interface {
	Publish(ctx context.Context, reminderID string, dueAt time.Time) (string, error)
}

// schedule persists the reminder and enqueues it. The todo must exist.
func schedule(ctx context.Context, store reminderStore, pub reminderPublisher, rem *model.Reminder) (string, error) {
	if _, err := store.GetTodo(ctx, rem.TodoID); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return "", fmt.Errorf("todo %s not found", rem.TodoID)
		}
		return "", fmt.Errorf("load todo: %w", err)
	}
	if err := store.CreateReminder(ctx, rem); err != nil {
		return "", fmt.Errorf("create reminder: %w", err)
	}
	streamID, err := pub.Publish(ctx, rem.ID, rem.RemindAt)
	if err != nil {
		return "", fmt.Errorf("publish reminder: %w", err)
	}
	return streamID, nil
}

func render(w io.Writer, format string, out output) error {
	switch strings.ToLower(format) {
	case "plain":
		_, err := fmt.Fprintln(w, out.ReminderID)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return errors.New("invalid format; use plain or json")
	}
}
