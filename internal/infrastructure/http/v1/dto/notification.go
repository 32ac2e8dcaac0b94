package dto

import (
	"time"

	"dapur/internal/domain/notify"
)

// NotificationResponse is the response body for one notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromNotification creates response DTO from domain entity.
func FromNotification(n *notify.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID.String(),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationListResponse is the response body for a notification listing.
type NotificationListResponse struct {
	Items []*NotificationResponse `json:"items"`
	Meta  ListMeta                `json:"meta"`
}

// FromNotificationList creates response DTO from a list result.
func FromNotificationList(items []*notify.Notification, total int64, limit, offset int) *NotificationListResponse {
	out := make([]*NotificationResponse, len(items))
	for i, n := range items {
		out[i] = FromNotification(n)
	}
	return &NotificationListResponse{
		Items: out,
		Meta:  ListMeta{TotalCount: total, Limit: limit, Offset: offset},
	}
}
