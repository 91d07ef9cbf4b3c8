package dto

import (
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
)

// CreateTeamRequest is the body of POST /api/v1/teams.
type CreateTeamRequest struct {
	TeamName    string `json:"teamName"`
	Description string `json:"description"`
}

// UpdateTeamRequest is the body of PATCH /api/v1/teams/{teamID}.
type UpdateTeamRequest struct {
	TeamName    *string `json:"teamName,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddMemberRequest is the body of POST /api/v1/teams/{teamID}/members.
type AddMemberRequest struct {
	Email string `json:"userEmail"`
	Role  string `json:"role,omitempty"`
}

// UpdateRoleRequest is the body of PATCH .../members/{userID}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// AssignRequest is the body of POST .../todos/{todoID}/assign.
type AssignRequest struct {
	AssignedUserID string `json:"assignedUserId"`
}

// AssigneesRequest is the body of PUT .../todos/{todoID}/assignees.
// A nil AssignedUserIDs means the field was absent; an empty list clears.
type AssigneesRequest struct {
	AssignedUserIDs *[]string `json:"assignedUserIds"`
}

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID          string    `json:"id"`
	TeamName    string    `json:"teamName"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createDate"`
	UpdatedAt   time.Time `json:"modifyDate"`
}

// ToTeamResponse converts a model.Team to its public view.
func ToTeamResponse(t *model.Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		TeamName:    t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToTeamResponses converts a slice of teams.
func ToTeamResponses(teams []*model.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, ToTeamResponse(t))
	}
	return out
}
