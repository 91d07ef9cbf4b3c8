package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/handler/dto"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/team"
)

// TeamHandler handles team and membership endpoints.
type TeamHandler struct {
	svc    *team.Service
	logger *slog.Logger
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(svc *team.Service, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{svc: svc, logger: logger.With("component", "handler.team")}
}

// Create handles POST /api/v1/teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.CreateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	t, err := h.svc.CreateTeam(r.Context(), userID, team.CreateInput{Name: req.TeamName, Description: req.Description})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("team_created", "team_id", t.ID, "user_id", userID)
	writeEnvelope(w, apperror.Success(apperror.CodeCreated, "team created", dto.ToTeamResponse(t)))
}

// My handles GET /api/v1/teams/my.
func (h *TeamHandler) My(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teams, err := h.svc.MyTeams(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "my teams", dto.ToTeamResponses(teams)))
}

// Get handles GET /api/v1/teams/{teamID}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	t, err := h.svc.GetTeam(r.Context(), chi.URLParam(r, "teamID"), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "team", dto.ToTeamResponse(t)))
}

// Update handles PATCH /api/v1/teams/{teamID}.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	t, err := h.svc.UpdateTeam(r.Context(), chi.URLParam(r, "teamID"), userID, team.UpdateInput{
		Name:        req.TeamName,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "team updated", dto.ToTeamResponse(t)))
}

// Delete handles DELETE /api/v1/teams/{teamID}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teamID := chi.URLParam(r, "teamID")
	if err := h.svc.DeleteTeam(r.Context(), teamID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("team_deleted", "team_id", teamID, "user_id", userID)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "team deleted", nil))
}

// Members handles GET /api/v1/teams/{teamID}/members.
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	members, err := h.svc.ListMembers(r.Context(), chi.URLParam(r, "teamID"), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "team members", members))
}

// AddMember handles POST /api/v1/teams/{teamID}/members.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input := team.AddMemberInput{Email: req.Email}
	if req.Role != "" {
		role, err := model.ParseTeamRole(req.Role)
		if err != nil {
			writeError(w, r, h.logger, apperror.BadRequest(err.Error()))
			return
		}
		input.Role = role
	}

	member, err := h.svc.AddMember(r.Context(), chi.URLParam(r, "teamID"), userID, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("member_added", "team_id", member.TeamID, "member_user_id", member.UserID, "role", member.Role)
	writeEnvelope(w, apperror.Success(apperror.CodeCreated, "member added", member))
}

// UpdateRole handles PATCH /api/v1/teams/{teamID}/members/{userID}/role.
func (h *TeamHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	role, err := model.ParseTeamRole(req.Role)
	if err != nil {
		writeError(w, r, h.logger, apperror.BadRequest(err.Error()))
		return
	}

	member, err := h.svc.UpdateMemberRole(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "userID"), userID, role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "role updated", member))
}

// RemoveMember handles DELETE /api/v1/teams/{teamID}/members/{userID}.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teamID, target := chi.URLParam(r, "teamID"), chi.URLParam(r, "userID")
	if err := h.svc.RemoveMember(r.Context(), teamID, target, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("member_removed", "team_id", teamID, "member_user_id", target, "user_id", userID)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "member removed", nil))
}
