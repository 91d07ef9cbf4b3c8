package team

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// Result lists the user IDs whose assignment changed.
type Result struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Changed reports whether the reconcile touched any row.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconciler moves the active assignee set of a todo to a desired set
// without deleting history: removed users are flipped to INACTIVE and
// returning users get their most recent row reactivated.
type Reconciler struct {
	store repository.AssignmentStore
	now   func() time.Time
}

// NewReconciler creates a Reconciler over store.
func NewReconciler(store repository.AssignmentStore) *Reconciler {
	return &Reconciler{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile applies the minimal set of changes so that exactly the users in
// desired hold an ACTIVE row for todoID. Duplicate and blank IDs in desired
// are ignored. Calling it twice with the same set changes nothing the second
// time.
func (r *Reconciler) Reconcile(ctx context.Context, todoID, teamID string, desired []string) (Result, error) {
	rows, err := r.store.ListAssignmentsByTodo(ctx, todoID)
	if err != nil {
		return Result{}, fmt.Errorf("load assignments: %w", err)
	}

	want := make(map[string]struct{}, len(desired))
	ordered := make([]string, 0, len(desired))
	for _, id := range desired {
		if id == "" {
			continue
		}
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		ordered = append(ordered, id)
	}

	active := make(map[string]bool)
	// Rows are newest first, so the first INACTIVE row seen per user is the
	// one to reactivate.
	latestInactive := make(map[string]string)
	var deactivate []string
	result := Result{Added: []string{}, Removed: []string{}}

	for _, row := range rows {
		if row.IsActive() {
			if _, keep := want[row.AssignedUserID]; keep {
				active[row.AssignedUserID] = true
				continue
			}
			deactivate = append(deactivate, row.ID)
			if !slices.Contains(result.Removed, row.AssignedUserID) {
				result.Removed = append(result.Removed, row.AssignedUserID)
			}
			continue
		}
		if _, seen := latestInactive[row.AssignedUserID]; !seen {
			latestInactive[row.AssignedUserID] = row.ID
		}
	}

	if len(deactivate) > 0 {
		if err := r.store.DeactivateAssignments(ctx, deactivate); err != nil {
			return Result{}, fmt.Errorf("deactivate assignments: %w", err)
		}
	}

	now := r.now()
	for _, userID := range ordered {
		if active[userID] {
			continue
		}
		if rowID, ok := latestInactive[userID]; ok {
			if err := r.store.ActivateAssignment(ctx, rowID, now); err != nil {
				return Result{}, fmt.Errorf("reactivate assignment: %w", err)
			}
		} else {
			row := &model.TodoAssignment{
				ID:             model.NewID(),
				TodoID:         todoID,
				TeamID:         teamID,
				AssignedUserID: userID,
				Status:         model.AssignmentActive,
				AssignedAt:     now,
			}
			if err := r.store.CreateAssignment(ctx, row); err != nil {
				return Result{}, fmt.Errorf("create assignment: %w", err)
			}
		}
		result.Added = append(result.Added, userID)
	}

	return result, nil
}
