package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/teamtodo/teamtodo/internal/model"
)

const assignmentColumns = `id, todo_id, team_id, assigned_user_id, status, assigned_at`

// ListAssignmentsByTodo returns every assignment row of a todo, newest first.
func (r *Repository) ListAssignmentsByTodo(ctx context.Context, todoID string) ([]*model.TodoAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM todo_assignments
		WHERE todo_id = $1
		ORDER BY assigned_at DESC, id DESC
	`
	return r.queryAssignments(ctx, query, todoID)
}

// ListAssignmentsByTeam returns the assignment history of a team, newest first.
func (r *Repository) ListAssignmentsByTeam(ctx context.Context, teamID string) ([]*model.TodoAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM todo_assignments
		WHERE team_id = $1
		ORDER BY assigned_at DESC, id DESC
	`
	return r.queryAssignments(ctx, query, teamID)
}

// CreateAssignment inserts an assignment row.
func (r *Repository) CreateAssignment(ctx context.Context, a *model.TodoAssignment) error {
	query := `
		INSERT INTO todo_assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.TodoID, a.TeamID, a.AssignedUserID, string(a.Status), a.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// ActivateAssignment flips a row to ACTIVE and refreshes its timestamp.
func (r *Repository) ActivateAssignment(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE todo_assignments SET status = $2, assigned_at = $3 WHERE id = $1`,
		id, string(model.AssignmentActive), at,
	)
	if err != nil {
		return fmt.Errorf("failed to activate assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// DeactivateAssignments flips the given rows to INACTIVE.
func (r *Repository) DeactivateAssignments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE todo_assignments SET status = $2 WHERE id = ANY($1)`,
		pq.Array(ids), string(model.AssignmentInactive),
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignments: %w", err)
	}
	return nil
}

// DeactivateUserAssignments deactivates a user's active assignments in a team.
func (r *Repository) DeactivateUserAssignments(ctx context.Context, teamID, userID string) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE todo_assignments SET status = $3
		WHERE team_id = $1 AND assigned_user_id = $2 AND status = $4
	`, teamID, userID, string(model.AssignmentInactive), string(model.AssignmentActive))
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate user assignments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteAssignmentsByTeam removes a team's assignment history.
func (r *Repository) DeleteAssignmentsByTeam(ctx context.Context, teamID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM todo_assignments WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team assignments: %w", err)
	}
	return nil
}

// DeleteAssignmentsByTodo removes a todo's assignment history.
func (r *Repository) DeleteAssignmentsByTodo(ctx context.Context, todoID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM todo_assignments WHERE todo_id = $1`, todoID); err != nil {
		return fmt.Errorf("failed to delete todo assignments: %w", err)
	}
	return nil
}

func (r *Repository) queryAssignments(ctx context.Context, query string, arg string) ([]*model.TodoAssignment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	out := make([]*model.TodoAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssignment(row pgx.Row) (*model.TodoAssignment, error) {
	var a model.TodoAssignment
	var status string
	if err := row.Scan(&a.ID, &a.TodoID, &a.TeamID, &a.AssignedUserID, &status, &a.AssignedAt); err != nil {
		return nil, err
	}
	a.Status = model.AssignmentStatus(status)
	return &a, nil
}
