package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

const (
	maxTeamNameLength        = 100
	maxTeamDescriptionLength = 1000
)

// Member is a team membership joined with the member's public profile.
type Member struct {
	ID       string         `json:"id"`
	TeamID   string         `json:"teamId"`
	UserID   string         `json:"userId"`
	Email    string         `json:"email"`
	Nickname string         `json:"nickname"`
	Role     model.TeamRole `json:"role"`
	JoinedAt time.Time      `json:"joinedAt"`
}

// CreateInput defines input for creating a team.
type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput defines a partial team update. Nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
}

// AddMemberInput identifies the invited user by email.
type AddMemberInput struct {
	Email string
	Role  model.TeamRole
}

// Service handles team and membership business logic.
type Service struct {
	store   repository.Store
	metrics metrics.Recorder
	now     func() time.Time
}

// NewService creates a new team Service.
func NewService(store repository.Store, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTeam creates a team and makes the creator its first LEADER.
func (s *Service) CreateTeam(ctx context.Context, creatorID string, input CreateInput) (*model.Team, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}

	now := s.now()
	team := &model.Team{
		ID:          model.NewID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetUserByID(ctx, creatorID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperror.NotFound(apperror.CodeUserNotFound, "user not found")
			}
			return fmt.Errorf("load creator: %w", err)
		}
		if err := tx.CreateTeam(ctx, team); err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		leader := &model.TeamMember{
			ID:       model.NewID(),
			TeamID:   team.ID,
			UserID:   creatorID,
			Role:     model.RoleLeader,
			JoinedAt: now,
		}
		if err := tx.AddMember(ctx, leader); err != nil {
			return fmt.Errorf("add leader: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTeamMutation("create_team")
	return team, nil
}

// MyTeams returns the teams userID belongs to.
func (s *Service) MyTeams(ctx context.Context, userID string) ([]*model.Team, error) {
	teams, err := s.store.ListTeamsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team visible to one of its members.
func (s *Service) GetTeam(ctx context.Context, teamID, viewerID string) (*model.Team, error) {
	team, err := s.loadTeam(ctx, s.store, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := NewGuard(s.store).RequireMember(ctx, teamID, viewerID); err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateTeam changes the name or description. Only leaders may do this.
func (s *Service) UpdateTeam(ctx context.Context, teamID, modifierID string, input UpdateInput) (*model.Team, error) {
	var team *model.Team
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if team, err = s.loadTeam(ctx, tx, teamID); err != nil {
			return err
		}
		if _, err := NewGuard(tx).RequireRole(ctx, teamID, modifierID, model.RoleLeader); err != nil {
			return err
		}

		if input.Name != nil {
			name, err := validateName(*input.Name)
			if err != nil {
				return err
			}
			team.Name = name
		}
		if input.Description != nil {
			if err := validateDescription(*input.Description); err != nil {
				return err
			}
			team.Description = strings.TrimSpace(*input.Description)
		}
		team.UpdatedAt = s.now()

		if err := tx.UpdateTeam(ctx, team); err != nil {
			return fmt.Errorf("update team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTeamMutation("update_team")
	return team, nil
}

// DeleteTeam removes a team and everything hanging off it, in order:
// assignments, todos, todo lists, members and finally the team row.
func (s *Service) DeleteTeam(ctx context.Context, teamID, deleterID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := s.loadTeam(ctx, tx, teamID); err != nil {
			return err
		}
		if _, err := NewGuard(tx).RequireRole(ctx, teamID, deleterID, model.RoleLeader); err != nil {
			return err
		}

		if err := tx.DeleteAssignmentsByTeam(ctx, teamID); err != nil {
			return fmt.Errorf("delete team assignments: %w", err)
		}

		lists, err := tx.ListTodoListsByTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("list todo lists: %w", err)
		}
		for _, list := range lists {
			todos, err := tx.ListTodosByList(ctx, list.ID)
			if err != nil {
				return fmt.Errorf("list todos: %w", err)
			}
			for _, todo := range todos {
				if err := tx.DeleteAssignmentsByTodo(ctx, todo.ID); err != nil {
					return fmt.Errorf("delete todo assignments: %w", err)
				}
			}
			if err := tx.DeleteTodosByList(ctx, list.ID); err != nil {
				return fmt.Errorf("delete todos: %w", err)
			}
			if err := tx.DeleteTodoList(ctx, list.ID); err != nil {
				return fmt.Errorf("delete todo list: %w", err)
			}
		}

		if err := tx.DeleteMembersByTeam(ctx, teamID); err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		if err := tx.DeleteTeam(ctx, teamID); err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncTeamMutation("delete_team")
	return nil
}

// ListMembers returns the members of a team to one of its members.
func (s *Service) ListMembers(ctx context.Context, teamID, requesterID string) ([]*Member, error) {
	if _, err := s.loadTeam(ctx, s.store, teamID); err != nil {
		return nil, err
	}
	if _, err := NewGuard(s.store).RequireMember(ctx, teamID, requesterID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]*Member, 0, len(rows))
	for _, row := range rows {
		member, err := s.toMember(ctx, s.store, row)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

// AddMember invites the user with the given email. Only leaders may invite.
func (s *Service) AddMember(ctx context.Context, teamID, inviterID string, input AddMemberInput) (*Member, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperror.BadRequest("email is required")
	}
	role := input.Role
	if role == "" {
		role = model.RoleMember
	}
	if !role.IsValid() {
		return nil, apperror.BadRequest(model.ErrInvalidRole.Error())
	}

	var member *Member
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := s.loadTeam(ctx, tx, teamID); err != nil {
			return err
		}
		if _, err := NewGuard(tx).RequireRole(ctx, teamID, inviterID, model.RoleLeader); err != nil {
			return err
		}

		user, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperror.NotFound(apperror.CodeUserNotFound, "no user with that email")
			}
			return fmt.Errorf("load invitee: %w", err)
		}

		row := &model.TeamMember{
			ID:       model.NewID(),
			TeamID:   teamID,
			UserID:   user.ID,
			Role:     role,
			JoinedAt: s.now(),
		}
		if err := tx.AddMember(ctx, row); err != nil {
			if errors.Is(err, repository.ErrAlreadyMember) {
				return apperror.Conflict(apperror.CodeAlreadyMember, "user is already a member of this team")
			}
			return fmt.Errorf("add member: %w", err)
		}

		member = memberView(row, user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTeamMutation("add_member")
	return member, nil
}

// UpdateMemberRole changes a member's role. Demoting the last leader fails
// with 409.
func (s *Service) UpdateMemberRole(ctx context.Context, teamID, targetUserID, requesterID string, role model.TeamRole) (*Member, error) {
	if !role.IsValid() {
		return nil, apperror.BadRequest(model.ErrInvalidRole.Error())
	}

	var member *Member
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := s.loadTeam(ctx, tx, teamID); err != nil {
			return err
		}
		guard := NewGuard(tx)
		if _, err := guard.RequireRole(ctx, teamID, requesterID, model.RoleLeader); err != nil {
			return err
		}

		var target *model.TeamMember
		var err error
		if role == model.RoleLeader {
			target, err = tx.GetMember(ctx, teamID, targetUserID)
			if errors.Is(err, repository.ErrMemberNotFound) {
				return apperror.NotFound(apperror.CodeMemberNotFound, "team member not found")
			}
		} else {
			target, err = guard.GuardLastLeader(ctx, teamID, targetUserID)
		}
		if err != nil {
			return err
		}

		if target.Role != role {
			if err := tx.UpdateMemberRole(ctx, teamID, targetUserID, role); err != nil {
				return fmt.Errorf("update role: %w", err)
			}
			target.Role = role
		}

		member, err = s.toMember(ctx, tx, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTeamMutation("update_role")
	return member, nil
}

// RemoveMember drops a member from the team and deactivates every todo
// assignment they held in it. Removing the last leader fails with 409.
func (s *Service) RemoveMember(ctx context.Context, teamID, targetUserID, requesterID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := s.loadTeam(ctx, tx, teamID); err != nil {
			return err
		}
		guard := NewGuard(tx)
		if _, err := guard.RequireRole(ctx, teamID, requesterID, model.RoleLeader); err != nil {
			return err
		}
		if _, err := guard.GuardLastLeader(ctx, teamID, targetUserID); err != nil {
			return err
		}

		if _, err := tx.DeactivateUserAssignments(ctx, teamID, targetUserID); err != nil {
			return fmt.Errorf("deactivate assignments: %w", err)
		}
		if err := tx.DeleteMember(ctx, teamID, targetUserID); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncTeamMutation("remove_member")
	return nil
}

func (s *Service) loadTeam(ctx context.Context, store repository.TeamStore, teamID string) (*model.Team, error) {
	team, err := store.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrTeamNotFound) {
			return nil, apperror.NotFound(apperror.CodeTeamNotFound, "team not found")
		}
		return nil, fmt.Errorf("load team: %w", err)
	}
	return team, nil
}

func (s *Service) toMember(ctx context.Context, store repository.UserStore, row *model.TeamMember) (*Member, error) {
	user, err := store.GetUserByID(ctx, row.UserID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("load member profile: %w", err)
	}
	return memberView(row, user), nil
}

func memberView(row *model.TeamMember, user *model.User) *Member {
	m := &Member{
		ID:       row.ID,
		TeamID:   row.TeamID,
		UserID:   row.UserID,
		Role:     row.Role,
		JoinedAt: row.JoinedAt,
	}
	if user != nil {
		m.Email = user.Email
		m.Nickname = user.Nickname
	}
	return m
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.BadRequest("team name is required")
	}
	if utf8.RuneCountInString(name) > maxTeamNameLength {
		return "", apperror.BadRequest(fmt.Sprintf("team name must be at most %d characters", maxTeamNameLength))
	}
	return name, nil
}

func validateDescription(raw string) error {
	if utf8.RuneCountInString(raw) > maxTeamDescriptionLength {
		return apperror.BadRequest(fmt.Sprintf("description must be at most %d characters", maxTeamDescriptionLength))
	}
	return nil
}
