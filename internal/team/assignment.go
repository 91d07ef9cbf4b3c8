package team

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// AssignResult describes the active assignee set after an assignment call.
type AssignResult struct {
	TodoID      string    `json:"todoId"`
	AssigneeIDs []string  `json:"assignedUserIds"`
	Added       []string  `json:"added"`
	Removed     []string  `json:"removed"`
	AssignedAt  time.Time `json:"assignedAt"`
}

// Assignee is an active assignee of a todo.
type Assignee struct {
	UserID     string    `json:"assignedUserId"`
	Nickname   string    `json:"assignedUserNickname"`
	Email      string    `json:"assignedUserEmail"`
	AssignedAt time.Time `json:"assignedAt"`
}

// AssignmentRecord is one row of a team's assignment history.
type AssignmentRecord struct {
	ID         string                 `json:"id"`
	TodoID     string                 `json:"todoId"`
	TodoTitle  string                 `json:"todoTitle"`
	UserID     string                 `json:"assignedUserId"`
	Nickname   string                 `json:"assignedUserNickname"`
	Email      string                 `json:"assignedUserEmail"`
	Status     model.AssignmentStatus `json:"status"`
	AssignedAt time.Time              `json:"assignedAt"`
}

// AssignmentService assigns team todos to team members. Every todo may
// have several active assignees; the single-assignee calls are shorthands
// that reconcile to one or zero users.
type AssignmentService struct {
	store   repository.Store
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(store repository.Store, recorder metrics.Recorder) *AssignmentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AssignmentService{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AssignMany makes userIDs the exact active assignee set of the todo.
func (s *AssignmentService) AssignMany(ctx context.Context, teamID, todoID, actorID string, userIDs []string) (*AssignResult, error) {
	for _, id := range userIDs {
		if id == "" {
			return nil, apperror.BadRequest("assignee id must not be empty")
		}
	}
	return s.reconcile(ctx, teamID, todoID, actorID, userIDs)
}

// Assign makes userID the only active assignee of the todo.
func (s *AssignmentService) Assign(ctx context.Context, teamID, todoID, actorID, userID string) (*AssignResult, error) {
	if userID == "" {
		return nil, apperror.BadRequest("assignee id is required")
	}
	return s.reconcile(ctx, teamID, todoID, actorID, []string{userID})
}

// Unassign deactivates every active assignment of the todo.
func (s *AssignmentService) Unassign(ctx context.Context, teamID, todoID, actorID string) (*AssignResult, error) {
	return s.reconcile(ctx, teamID, todoID, actorID, nil)
}

func (s *AssignmentService) reconcile(ctx context.Context, teamID, todoID, actorID string, desired []string) (*AssignResult, error) {
	var result Result
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LockTodo(ctx, todoID); err != nil {
			return err
		}

		guard := NewGuard(tx)
		if _, err := guard.RequireMember(ctx, teamID, actorID); err != nil {
			return err
		}
		if _, err := s.loadTeamTodo(ctx, tx, teamID, todoID); err != nil {
			return err
		}
		for _, userID := range desired {
			if _, err := guard.RequireMember(ctx, teamID, userID); err != nil {
				if apperror.HasCode(err, apperror.CodeNoPermission) {
					return apperror.NoPermission("assignee must be a member of this team")
				}
				return err
			}
		}

		reconciler := NewReconciler(tx)
		reconciler.now = s.now
		var err error
		result, err = reconciler.Reconcile(ctx, todoID, teamID, desired)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveReconcile(len(result.Added), len(result.Removed))

	assignees := dedupe(desired)
	return &AssignResult{
		TodoID:      todoID,
		AssigneeIDs: assignees,
		Added:       result.Added,
		Removed:     result.Removed,
		AssignedAt:  s.now(),
	}, nil
}

// Assignees returns the active assignees of a todo, most recently assigned
// first.
func (s *AssignmentService) Assignees(ctx context.Context, teamID, todoID, actorID string) ([]*Assignee, error) {
	if _, err := NewGuard(s.store).RequireMember(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.loadTeamTodo(ctx, s.store, teamID, todoID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListAssignmentsByTodo(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	assignees := make([]*Assignee, 0, len(rows))
	for _, row := range rows {
		if !row.IsActive() {
			continue
		}
		user, err := s.lookupUser(ctx, row.AssignedUserID)
		if err != nil {
			return nil, err
		}
		assignees = append(assignees, &Assignee{
			UserID:     row.AssignedUserID,
			Nickname:   user.Nickname,
			Email:      user.Email,
			AssignedAt: row.AssignedAt,
		})
	}
	return assignees, nil
}

// TeamAssignments returns the full assignment history of a team, newest
// first, including INACTIVE rows.
func (s *AssignmentService) TeamAssignments(ctx context.Context, teamID, actorID string) ([]*AssignmentRecord, error) {
	if _, err := NewGuard(s.store).RequireMember(ctx, teamID, actorID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListAssignmentsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team assignments: %w", err)
	}

	titles := make(map[string]string)
	records := make([]*AssignmentRecord, 0, len(rows))
	for _, row := range rows {
		title, ok := titles[row.TodoID]
		if !ok {
			todo, err := s.store.GetTodo(ctx, row.TodoID)
			if err != nil && !errors.Is(err, repository.ErrTodoNotFound) {
				return nil, fmt.Errorf("load todo: %w", err)
			}
			if todo != nil {
				title = todo.Title
			}
			titles[row.TodoID] = title
		}

		user, err := s.lookupUser(ctx, row.AssignedUserID)
		if err != nil {
			return nil, err
		}
		records = append(records, &AssignmentRecord{
			ID:         row.ID,
			TodoID:     row.TodoID,
			TodoTitle:  title,
			UserID:     row.AssignedUserID,
			Nickname:   user.Nickname,
			Email:      user.Email,
			Status:     row.Status,
			AssignedAt: row.AssignedAt,
		})
	}
	return records, nil
}

// IsAssignee reports whether userID is a team member holding an active
// assignment on the todo. Non-members are never assignees.
func (s *AssignmentService) IsAssignee(ctx context.Context, teamID, todoID, userID string) (bool, error) {
	if _, err := NewGuard(s.store).RequireMember(ctx, teamID, userID); err != nil {
		if apperror.HasCode(err, apperror.CodeNoPermission) {
			return false, nil
		}
		return false, err
	}

	rows, err := s.store.ListAssignmentsByTodo(ctx, todoID)
	if err != nil {
		return false, fmt.Errorf("list assignments: %w", err)
	}
	for _, row := range rows {
		if row.IsActive() && row.AssignedUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// loadTeamTodo returns the todo when it sits in a list owned by teamID.
func (s *AssignmentService) loadTeamTodo(ctx context.Context, store repository.TodoStore, teamID, todoID string) (*model.Todo, error) {
	todo, err := store.GetTodo(ctx, todoID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, apperror.NotFound(apperror.CodeTodoNotFound, "todo not found")
		}
		return nil, fmt.Errorf("load todo: %w", err)
	}

	list, err := store.GetTodoList(ctx, todo.TodoListID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoListNotFound) {
			return nil, apperror.NotFound(apperror.CodeTodoListNotFound, "todo list not found")
		}
		return nil, fmt.Errorf("load todo list: %w", err)
	}
	if list.TeamID != teamID {
		return nil, apperror.Forbidden("todo does not belong to this team")
	}
	return todo, nil
}

func (s *AssignmentService) lookupUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &model.User{ID: id}, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
