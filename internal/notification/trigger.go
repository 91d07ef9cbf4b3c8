// Package notification turns due reminders into user notifications. Reminder
// IDs arrive on a Redis stream and are resolved to the owner of the todo list.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// Store is the persistence surface the trigger needs.
type Store interface {
	GetReminder(ctx context.Context, id string) (*model.Reminder, error)
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	GetTodoList(ctx context.Context, id string) (*model.TodoList, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Trigger creates notification records for reminders.
type Trigger struct {
	store Store
	now   func() time.Time
}

// NewTrigger creates a reminder trigger.
func NewTrigger(store Store) *Trigger {
	return &Trigger{store: store, now: time.Now}
}

// TriggerReminder notifies the owner of the reminder's todo list.
func (t *Trigger) TriggerReminder(ctx context.Context, reminderID string) (*model.Notification, error) {
	rem, err := t.store.GetReminder(ctx, reminderID)
	if err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return nil, apperror.NotFound(apperror.CodeReminderNotFound, "reminder not found")
		}
		return nil, apperror.Internal(err)
	}

	todo, err := t.store.GetTodo(ctx, rem.TodoID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, apperror.NotFound(apperror.CodeTodoNotFound, "todo not found")
		}
		return nil, apperror.Internal(err)
	}

	list, err := t.store.GetTodoList(ctx, todo.TodoListID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoListNotFound) {
			return nil, apperror.NotFound(apperror.CodeTodoListNotFound, "todo list not found")
		}
		return nil, apperror.Internal(err)
	}

	owner, err := t.store.GetUserByID(ctx, list.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
		}
		return nil, apperror.Internal(err)
	}

	n := &model.Notification{
		ID:          model.NewID(),
		UserID:      owner.ID,
		Title:       "Reminder: " + rem.Method,
		Description: "Reminder for: " + todo.Title,
		URL:         fmt.Sprintf("/todoList/%s", list.ID),
		CreatedAt:   t.now().UTC(),
	}
	if err := t.store.CreateNotification(ctx, n); err != nil {
		return nil, apperror.Internal(err)
	}
	return n, nil
}
