package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/handler/dto"
	"github.com/teamtodo/teamtodo/internal/model"
)

// NotificationLister reads a user's notifications, newest first.
type NotificationLister interface {
	ListNotificationsByUser(ctx context.Context, userID string) ([]*model.Notification, error)
}

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	store  NotificationLister
	logger *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(store NotificationLister, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, logger: logger.With("component", "handler.notification")}
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := principalID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.store.ListNotificationsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("list notifications: %w", err))
		return
	}
	writeEnvelope(w, apperror.Success(apperror.CodeSuccess, "notifications", dto.ToNotificationResponses(items)))
}
