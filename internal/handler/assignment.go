package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/handler/dto"
	"github.com/teamtodo/teamtodo/internal/team"
)

// AssignmentHandler handles todo assignment endpoints.
type AssignmentHandler struct {
	svc    *team.AssignmentService
	logger *slog.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(svc *team.AssignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, logger: logger.With("component", "handler.assignment")}
}

// Assign handles POST /api/v1/teams/{teamID}/todos/{todoID}/assign.
// The given user replaces any current assignees.
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actorID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.AssignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.AssignedUserID == "" {
		writeError(w, r, h.logger, apperror.BadRequest("assignedUserId is required"))
		return
	}

	res, err := h.svc.Assign(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "todoID"), actorID, req.AssignedUserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logReconcile(actorID, res)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "todo assigned", res))
}

// SetAssignees handles PUT /api/v1/teams/{teamID}/todos/{todoID}/assignees.
func (h *AssignmentHandler) SetAssignees(w http.ResponseWriter, r *http.Request) {
	actorID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.AssigneesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.AssignedUserIDs == nil {
		writeError(w, r, h.logger, apperror.BadRequest("assignedUserIds is required"))
		return
	}

	res, err := h.svc.AssignMany(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "todoID"), actorID, *req.AssignedUserIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logReconcile(actorID, res)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "assignees updated", res))
}

// Unassign handles DELETE /api/v1/teams/{teamID}/todos/{todoID}/assign.
func (h *AssignmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	actorID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Unassign(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "todoID"), actorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logReconcile(actorID, res)
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "todo unassigned", res))
}

// Assignees handles GET /api/v1/teams/{teamID}/todos/{todoID}/assignees.
func (h *AssignmentHandler) Assignees(w http.ResponseWriter, r *http.Request) {
	actorID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	assignees, err := h.svc.Assignees(r.Context(), chi.URLParam(r, "teamID"), chi.URLParam(r, "todoID"), actorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "assignees", assignees))
}

// TeamAssignments handles GET /api/v1/teams/{teamID}/assignments.
func (h *AssignmentHandler) TeamAssignments(w http.ResponseWriter, r *http.Request) {
	actorID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	records, err := h.svc.TeamAssignments(r.Context(), chi.URLParam(r, "teamID"), actorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "team assignments", records))
}

func (h *AssignmentHandler) logReconcile(actorID string, res *team.AssignResult) {
	h.logger.Info("assignment_reconciled",
		"todo_id", res.TodoID,
		"user_id", actorID,
		"added", len(res.Added),
		"removed", len(res.Removed),
	)
}
