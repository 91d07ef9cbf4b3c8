package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/teamtodo/teamtodo/internal/model"
)

const userColumns = `id, email, password_hash, api_key, is_admin, nickname, profile_image_url, created_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.APIKey,
		user.IsAdmin,
		user.Nickname,
		user.ProfileImageURL,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByAPIKey retrieves the user owning an API key.
func (r *Repository) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.getUser(ctx, "api_key", apiKey)
}

// UpdateUserProfile changes the nickname and profile image of a user.
func (r *Repository) UpdateUserProfile(ctx context.Context, id, nickname, profileImageURL string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET nickname = $2, profile_image_url = $3 WHERE id = $1`,
		id, nickname, profileImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// getUser looks up a user by a unique column. column is never user input.
func (r *Repository) getUser(ctx context.Context, column, value string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var user model.User
	err := r.db.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.APIKey,
		&user.IsAdmin,
		&user.Nickname,
		&user.ProfileImageURL,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}
