package model

import (
	"errors"
	"strings"
	"time"
)

// TeamRole is the role of a member within a team.
type TeamRole string

// Team roles.
const (
	RoleLeader TeamRole = "LEADER"
	RoleMember TeamRole = "MEMBER"
)

// ErrInvalidRole indicates a role value outside the known set.
var ErrInvalidRole = errors.New("invalid team role")

// ParseTeamRole converts raw input into a TeamRole.
// Input is matched case-insensitively; anything else is rejected.
func ParseTeamRole(raw string) (TeamRole, error) {
	switch TeamRole(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleLeader:
		return RoleLeader, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", ErrInvalidRole
	}
}

// IsValid reports whether r is a known role.
func (r TeamRole) IsValid() bool {
	return r == RoleLeader || r == RoleMember
}

// Team groups users that share todo lists.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMember links a user to a team with a role.
type TeamMember struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     TeamRole  `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// IsLeader reports whether the member holds the LEADER role.
func (m *TeamMember) IsLeader() bool {
	return m.Role == RoleLeader
}
