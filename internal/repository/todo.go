package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/teamtodo/teamtodo/internal/model"
)

// CreateTodoList inserts a todo list.
func (r *Repository) CreateTodoList(ctx context.Context, list *model.TodoList) error {
	query := `
		INSERT INTO todo_lists (id, team_id, owner_id, name, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, list.ID, list.TeamID, list.OwnerID, list.Name, list.CreatedAt); err != nil {
		return fmt.Errorf("failed to create todo list: %w", err)
	}
	return nil
}

// GetTodoList retrieves a todo list by ID.
func (r *Repository) GetTodoList(ctx context.Context, id string) (*model.TodoList, error) {
	query := `
		SELECT id, COALESCE(team_id, ''), owner_id, name, created_at
		FROM todo_lists
		WHERE id = $1
	`

	var list model.TodoList
	err := r.db.QueryRow(ctx, query, id).Scan(&list.ID, &list.TeamID, &list.OwnerID, &list.Name, &list.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoListNotFound
		}
		return nil, fmt.Errorf("failed to get todo list: %w", err)
	}
	return &list, nil
}

// ListTodoListsByTeam returns the todo lists owned by a team.
func (r *Repository) ListTodoListsByTeam(ctx context.Context, teamID string) ([]*model.TodoList, error) {
	query := `
		SELECT id, COALESCE(team_id, ''), owner_id, name, created_at
		FROM todo_lists
		WHERE team_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todo lists: %w", err)
	}
	defer rows.Close()

	lists := make([]*model.TodoList, 0)
	for rows.Next() {
		var list model.TodoList
		if err := rows.Scan(&list.ID, &list.TeamID, &list.OwnerID, &list.Name, &list.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo list: %w", err)
		}
		lists = append(lists, &list)
	}
	return lists, rows.Err()
}

// DeleteTodoList removes a todo list row.
func (r *Repository) DeleteTodoList(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todo_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTodoListNotFound
	}
	return nil
}

// CreateTodo inserts a todo.
func (r *Repository) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (id, todo_list_id, title, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, todo.ID, todo.TodoListID, todo.Title, todo.CreatedAt); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// GetTodo retrieves a todo by ID.
func (r *Repository) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	query := `SELECT id, todo_list_id, title, created_at FROM todos WHERE id = $1`

	var todo model.Todo
	err := r.db.QueryRow(ctx, query, id).Scan(&todo.ID, &todo.TodoListID, &todo.Title, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return &todo, nil
}

// ListTodosByList returns the todos of a list, oldest first.
func (r *Repository) ListTodosByList(ctx context.Context, listID string) ([]*model.Todo, error) {
	query := `
		SELECT id, todo_list_id, title, created_at
		FROM todos
		WHERE todo_list_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		var todo model.Todo
		if err := rows.Scan(&todo.ID, &todo.TodoListID, &todo.Title, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, &todo)
	}
	return todos, rows.Err()
}

// DeleteTodosByList removes every todo of a list.
func (r *Repository) DeleteTodosByList(ctx context.Context, listID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM todos WHERE todo_list_id = $1`, listID); err != nil {
		return fmt.Errorf("failed to delete todos: %w", err)
	}
	return nil
}
