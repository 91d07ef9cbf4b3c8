package dto

import (
	"time"

	"github.com/teamtodo/teamtodo/internal/model"
)

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createDate"`
}

// ToNotificationResponses converts notification models for the inbox.
func ToNotificationResponses(items []*model.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:          n.ID,
			Title:       n.Title,
			Description: n.Description,
			URL:         n.URL,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		})
	}
	return out
}
