package model

import "time"

// AssignmentStatus is the state of a todo assignment row.
type AssignmentStatus string

// Assignment statuses.
const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentInactive AssignmentStatus = "INACTIVE"
)

// TodoList is a team-owned collection of todos.
type TodoList struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Todo is a single task.
type Todo struct {
	ID         string    `json:"id"`
	TodoListID string    `json:"todo_list_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

// TodoAssignment records that a user was assigned to a todo.
// Rows are deactivated rather than deleted so assignment history is kept.
type TodoAssignment struct {
	ID             string           `json:"id"`
	TodoID         string           `json:"todo_id"`
	TeamID         string           `json:"team_id"`
	AssignedUserID string           `json:"assigned_user_id"`
	Status         AssignmentStatus `json:"status"`
	AssignedAt     time.Time        `json:"assigned_at"`
}

// IsActive reports whether the assignment is currently in effect.
func (a *TodoAssignment) IsActive() bool {
	return a.Status == AssignmentActive
}
