package dto

import (
	"time"

	"github.com/evreg/lottery-service/internal/domain"
)

// NotifyGroupRequest represents request to notify a waiting list group
type NotifyGroupRequest struct {
	OrganizerID string `json:"organizer_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Body        string `json:"body,omitempty"`
	Group       string `json:"group" binding:"required,oneof=WAITLIST SELECTED CANCELLED ATTENDING"`
}

// NotifyListRequest represents request to notify an explicit recipient list
type NotifyListRequest struct {
	OrganizerID string   `json:"organizer_id" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Body        string   `json:"body,omitempty"`
	UserIDs     []string `json:"user_ids" binding:"required"`
}

// NotifyResponse represents the outcome of a fan-out
type NotifyResponse struct {
	EventID      string   `json:"event_id"`
	DeliveredIDs []string `json:"delivered_ids"`
	Count        int      `json:"count"`
}

// NotificationResponse represents one inbox notification
type NotificationResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    string    `json:"category"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// InboxResponse represents a user's notification inbox
type InboxResponse struct {
	UserID        string                 `json:"user_id"`
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

// UnreadCountResponse represents a user's unread badge count
type UnreadCountResponse struct {
	UserID      string `json:"user_id"`
	UnreadCount int64  `json:"unread_count"`
}

// NotificationLogResponse represents one audit row formatted for display
type NotificationLogResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	Meta           string   `json:"meta"`
	Category       string   `json:"category"`
	RecipientIDs   []string `json:"recipient_ids"`
	RecipientCount int      `json:"recipient_count"`
}

// NotificationFromDomain converts a domain Notification to a NotificationResponse
func NotificationFromDomain(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		EventID:     n.EventID,
		OrganizerID: n.OrganizerID,
		Title:       n.Title,
		Body:        n.Body,
		Category:    n.Category.String(),
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}
