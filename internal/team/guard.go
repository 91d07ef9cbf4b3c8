// Package team implements team membership rules and todo assignment.
package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// Guard checks team membership and roles against a TeamStore.
// Build one per transaction so checks and writes share the same view.
type Guard struct {
	store repository.TeamStore
}

// NewGuard creates a Guard over store.
func NewGuard(store repository.TeamStore) *Guard {
	return &Guard{store: store}
}

// RequireMember returns the membership row of userID in teamID,
// or 403-NO_PERMISSION when there is none.
func (g *Guard) RequireMember(ctx context.Context, teamID, userID string) (*model.TeamMember, error) {
	member, err := g.store.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, apperror.NoPermission("not a member of this team")
		}
		return nil, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

// RequireRole is RequireMember plus a role match.
func (g *Guard) RequireRole(ctx context.Context, teamID, userID string, role model.TeamRole) (*model.TeamMember, error) {
	member, err := g.RequireMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != role {
		return nil, apperror.NoPermission(fmt.Sprintf("team role %s required", role))
	}
	return member, nil
}

// GuardLastLeader fails with 409 when targetUserID is the only LEADER of
// teamID. The caller must hold the team lock inside the transaction that
// performs the removal or demotion.
func (g *Guard) GuardLastLeader(ctx context.Context, teamID, targetUserID string) (*model.TeamMember, error) {
	target, err := g.store.GetMember(ctx, teamID, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, apperror.NotFound(apperror.CodeMemberNotFound, "team member not found")
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	if !target.IsLeader() {
		return target, nil
	}

	leaders, err := g.store.CountMembersByRole(ctx, teamID, model.RoleLeader)
	if err != nil {
		return nil, fmt.Errorf("count leaders: %w", err)
	}
	if leaders <= 1 {
		return nil, apperror.Conflict(apperror.CodeLastLeader, "the last leader of a team cannot be removed or demoted")
	}
	return target, nil
}
