package dto

import (
	"time"

	"github.com/evreg/lottery-service/internal/domain"
)

// CreateEventRequest represents request to register an event
type CreateEventRequest struct {
	OrganizerID         string `json:"organizer_id" binding:"required"`
	Title               string `json:"title" binding:"required"`
	Description         string `json:"description,omitempty"`
	Capacity            int    `json:"capacity" binding:"required,min=1"`
	WaitingListCapacity int    `json:"waiting_list_capacity,omitempty"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID                  string    `json:"id"`
	OrganizerID         string    `json:"organizer_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	Capacity            int       `json:"capacity"`
	WaitingListCapacity int       `json:"waiting_list_capacity"`
	CreatedAt           time.Time `json:"created_at"`
}

// JoinWaitlistRequest represents request to join an event's waiting list
type JoinWaitlistRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// WaitlistEntryResponse represents one entrant on a waiting list
type WaitlistEntryResponse struct {
	UserID string `json:"user_id"`
	State  string `json:"state"`
}

// WaitlistResponse represents an event's waiting list
type WaitlistResponse struct {
	EventID  string                  `json:"event_id"`
	Capacity int                     `json:"capacity"`
	Entries  []WaitlistEntryResponse `json:"entries"`
	Count    int                     `json:"count"`
}

// EntrantStatusResponse represents one entrant's membership and state
type EntrantStatusResponse struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	InList  bool   `json:"in_list"`
	State   string `json:"state"`
}

// DrawRequest represents request to run a lottery draw
type DrawRequest struct {
	OrganizerID string `json:"organizer_id" binding:"required"`
	NumSelect   int    `json:"num_select" binding:"required,min=1"`
	// Reselect replaces previously unselected entrants back into the pool
	Reselect bool `json:"reselect,omitempty"`
}

// DrawResponse represents the outcome of a lottery draw
type DrawResponse struct {
	EventID     string   `json:"event_id"`
	Selected    []string `json:"selected"`
	NotSelected []string `json:"not_selected"`
	DrawnAt     string   `json:"drawn_at"`
}

// EventFromDomain converts a domain Event to an EventResponse
func EventFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:                  e.ID,
		OrganizerID:         e.OrganizerID,
		Title:               e.Title,
		Description:         e.Description,
		Capacity:            e.Capacity,
		WaitingListCapacity: e.WaitingListCapacity,
		CreatedAt:           e.CreatedAt,
	}
}

// WaitlistFromDomain converts a domain WaitingList to a WaitlistResponse
func WaitlistFromDomain(eventID string, wl *domain.WaitingList) *WaitlistResponse {
	entries := wl.Entries()
	out := make([]WaitlistEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, WaitlistEntryResponse{UserID: e.UserID, State: e.State.String()})
	}
	return &WaitlistResponse{
		EventID:  eventID,
		Capacity: wl.Capacity(),
		Entries:  out,
		Count:    wl.NumEntrants(),
	}
}
