package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/teamtodo/teamtodo/internal/model"
)

// CreateTeam inserts a new team.
func (r *Repository) CreateTeam(ctx context.Context, team *model.Team) error {
	query := `
		INSERT INTO teams (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, team.ID, team.Name, team.Description, team.CreatedAt, team.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (r *Repository) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team model.Team
	err := r.db.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

// UpdateTeam saves the team's name and description.
func (r *Repository) UpdateTeam(ctx context.Context, team *model.Team) error {
	query := `
		UPDATE teams
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, team.ID, team.Name, team.Description, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// DeleteTeam removes the team row only. Dependents must be removed first.
func (r *Repository) DeleteTeam(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// ListTeamsByUser returns the teams the user belongs to, oldest membership first.
func (r *Repository) ListTeamsByUser(ctx context.Context, userID string) ([]*model.Team, error) {
	query := `
		SELECT t.id, t.name, t.description, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at, t.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*model.Team, 0)
	for rows.Next() {
		var team model.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}
	return teams, rows.Err()
}

// AddMember inserts a membership row.
func (r *Repository) AddMember(ctx context.Context, member *model.TeamMember) error {
	query := `
		INSERT INTO team_members (id, team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, member.ID, member.TeamID, member.UserID, string(member.Role), member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetMember retrieves the membership of a user in a team.
func (r *Repository) GetMember(ctx context.Context, teamID, userID string) (*model.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	m, err := scanMember(r.db.QueryRow(ctx, query, teamID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers returns all members of a team, oldest first.
func (r *Repository) ListMembers(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*model.TeamMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountMembersByRole counts the members of a team holding role.
func (r *Repository) CountMembersByRole(ctx context.Context, teamID string, role model.TeamRole) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND role = $2`,
		teamID, string(role),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// UpdateMemberRole changes a member's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, teamID, userID string, role model.TeamRole) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE team_members SET role = $3 WHERE team_id = $1 AND user_id = $2`,
		teamID, userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// DeleteMember removes a user from a team.
func (r *Repository) DeleteMember(ctx context.Context, teamID, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// DeleteMembersByTeam removes every membership of a team.
func (r *Repository) DeleteMembersByTeam(ctx context.Context, teamID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team members: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (*model.TeamMember, error) {
	var m model.TeamMember
	var role string
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.Role = model.TeamRole(role)
	return &m, nil
}
