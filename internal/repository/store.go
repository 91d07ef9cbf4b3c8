package repository

import (
	"context"
	"errors"
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
)

// Sentinel errors returned by Store implementations.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrTeamNotFound     = errors.New("team not found")
	ErrMemberNotFound   = errors.New("team member not found")
	ErrAlreadyMember    = errors.New("user is already a team member")
	ErrTodoListNotFound = errors.New("todo list not found")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrNoTransaction    = errors.New("operation requires a transaction")

	ErrAssignmentNotFound = errors.New("todo assignment not found")
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id, nickname, profileImageURL string) error
}

// TeamStore persists teams and their members.
type TeamStore interface {
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	UpdateTeam(ctx context.Context, team *model.Team) error
	DeleteTeam(ctx context.Context, id string) error
	ListTeamsByUser(ctx context.Context, userID string) ([]*model.Team, error)

	AddMember(ctx context.Context, member *model.TeamMember) error
	GetMember(ctx context.Context, teamID, userID string) (*model.TeamMember, error)
	ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error)
	CountMembersByRole(ctx context.Context, teamID string, role model.TeamRole) (int, error)
	UpdateMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error
	DeleteMember(ctx context.Context, teamID, userID string) error
	DeleteMembersByTeam(ctx context.Context, teamID string) error
}

// TodoStore persists the todo lists and todos that assignments refer to.
type TodoStore interface {
	CreateTodoList(ctx context.Context, list *model.TodoList) error
	GetTodoList(ctx context.Context, id string) (*model.TodoList, error)
	ListTodoListsByTeam(ctx context.Context, teamID string) ([]*model.TodoList, error)
	DeleteTodoList(ctx context.Context, id string) error

	CreateTodo(ctx context.Context, todo *model.Todo) error
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	ListTodosByList(ctx context.Context, listID string) ([]*model.Todo, error)
	DeleteTodosByList(ctx context.Context, listID string) error
}

// AssignmentStore persists todo assignment history.
type AssignmentStore interface {
	// ListAssignmentsByTodo returns every row for the todo, newest first.
	ListAssignmentsByTodo(ctx context.Context, todoID string) ([]*model.TodoAssignment, error)
	ListAssignmentsByTeam(ctx context.Context, teamID string) ([]*model.TodoAssignment, error)
	CreateAssignment(ctx context.Context, a *model.TodoAssignment) error
	ActivateAssignment(ctx context.Context, id string, at time.Time) error
	DeactivateAssignments(ctx context.Context, ids []string) error
	DeactivateUserAssignments(ctx context.Context, teamID, userID string) (int, error)
	DeleteAssignmentsByTeam(ctx context.Context, teamID string) error
	DeleteAssignmentsByTodo(ctx context.Context, todoID string) error
}

// NotificationStore persists reminders and the notifications they produce.
type NotificationStore interface {
	CreateReminder(ctx context.Context, r *model.Reminder) error
	GetReminder(ctx context.Context, id string) (*model.Reminder, error)
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string) ([]*model.Notification, error)
}

// Store is the persistence boundary of the application.
//
// WithTx runs fn against a transactional Store; returning an error rolls back.
// LockTeam and LockTodo serialize concurrent transactions on one entity and
// must be called inside WithTx.
type Store interface {
	UserStore
	TeamStore
	TodoStore
	AssignmentStore
	NotificationStore

	WithTx(ctx context.Context, fn func(tx Store) error) error
	LockTeam(ctx context.Context, teamID string) error
	LockTodo(ctx context.Context, todoID string) error
	Ping(ctx context.Context) error
}
