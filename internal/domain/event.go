package domain

import "time"

// Event owns exactly one waiting list; the event's lifecycle controls the
// list's lifecycle and the list capacity mirrors WaitingListCapacity.
type Event struct {
	ID                  string    `json:"id"`
	OrganizerID         string    `json:"organizer_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Capacity            int       `json:"capacity"`
	WaitingListCapacity int       `json:"waiting_list_capacity"`
	CreatedAt           time.Time `json:"created_at"`

	waitingList *WaitingList
}

// NewEvent creates an event with an empty waiting list.
// waitingListCapacity < 0 means unlimited.
func NewEvent(id, organizerID, title string, capacity, waitingListCapacity int) *Event {
	if waitingListCapacity < 0 {
		waitingListCapacity = UnlimitedCapacity
	}
	return &Event{
		ID:                  id,
		OrganizerID:         organizerID,
		Title:               title,
		Capacity:            capacity,
		WaitingListCapacity: waitingListCapacity,
		CreatedAt:           time.Now().UTC(),
		waitingList:         NewWaitingList(waitingListCapacity),
	}
}

// WaitingList returns the event's waiting list, creating it lazily for
// events rebuilt from storage.
func (e *Event) WaitingList() *WaitingList {
	if e.waitingList == nil {
		e.waitingList = NewWaitingList(e.WaitingListCapacity)
	}
	return e.waitingList
}

// AttachWaitingList replaces the event's list with one restored from storage
func (e *Event) AttachWaitingList(wl *WaitingList) {
	e.waitingList = wl
}
