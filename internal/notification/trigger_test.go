package notification

import (
	"context"
	"testing"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
	"github.com/teamtodo/teamtodo/internal/testutil"
)

func seedReminder(t *testing.T, store *repository.Memory) (*model.User, *model.TodoList, *model.Reminder) {
	t.Helper()
	ctx := context.Background()

	owner := testutil.NewTestUser(t, "owner")
	if err := store.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}
	list := testutil.NewTestTodoList(t, "", owner.ID)
	if err := store.CreateTodoList(ctx, list); err != nil {
		t.Fatalf("create list: %v", err)
	}
	todo := testutil.NewTestTodo(t, list.ID, "water plants")
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	rem := &model.Reminder{ID: model.NewID(), TodoID: todo.ID, Method: "EMAIL", RemindAt: time.Now().UTC()}
	if err := store.CreateReminder(ctx, rem); err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	return owner, list, rem
}

func TestTriggerReminder_NotifiesListOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := repository.NewMemory()
	owner, list, rem := seedReminder(t, store)

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trigger := NewTrigger(store)
	trigger.now = func() time.Time { return fixed }

	n, err := trigger.TriggerReminder(ctx, rem.ID)
	if err != nil {
		t.Fatalf("TriggerReminder: %v", err)
	}
	if n.UserID != owner.ID {
		t.Errorf("UserID = %q, want %q", n.UserID, owner.ID)
	}
	if n.Title != "Reminder: EMAIL" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Description != "Reminder for: water plants" {
		t.Errorf("Description = %q", n.Description)
	}
	if n.URL != "/todoList/"+list.ID {
		t.Errorf("URL = %q", n.URL)
	}
	if !n.CreatedAt.Equal(fixed) || n.IsRead {
		t.Errorf("unexpected notification state: %+v", n)
	}

	stored, err := store.ListNotificationsByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListNotificationsByUser: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != n.ID {
		t.Fatalf("stored notifications = %+v", stored)
	}
}

func TestTriggerReminder_UnknownReminder(t *testing.T) {
	t.Parallel()

	_, err := NewTrigger(repository.NewMemory()).TriggerReminder(context.Background(), model.NewID())
	if !apperror.HasCode(err, apperror.CodeReminderNotFound) {
		t.Fatalf("expected %s, got %v", apperror.CodeReminderNotFound, err)
	}
}

func TestTriggerReminder_DanglingTodo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := repository.NewMemory()

	rem := &model.Reminder{ID: model.NewID(), TodoID: model.NewID(), Method: "PUSH", RemindAt: time.Now()}
	if err := store.CreateReminder(ctx, rem); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	_, err := NewTrigger(store).TriggerReminder(ctx, rem.ID)
	if !apperror.HasCode(err, apperror.CodeTodoNotFound) {
		t.Fatalf("expected %s, got %v", apperror.CodeTodoNotFound, err)
	}
}
