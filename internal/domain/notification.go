package domain

import "time"

// Category is the semantic bucket of a notification
type Category string

const (
	CategoryChosenSignup     Category = "CHOSEN_SIGNUP"
	CategoryWaitlist         Category = "WAITLIST"
	CategorySelected         Category = "SELECTED"
	CategoryCancelled        Category = "CANCELLED"
	CategoryLotteryWin       Category = "LOTTERY_WIN"
	CategoryLotteryLose      Category = "LOTTERY_LOSE"
	CategoryOrganizerMessage Category = "ORGANIZER_MESSAGE"
)

// String returns the category name
func (c Category) String() string {
	return string(c)
}

// Group names a recipient set resolved from waiting list states
type Group string

const (
	GroupWaitlist  Group = "WAITLIST"
	GroupSelected  Group = "SELECTED"
	GroupCancelled Group = "CANCELLED"
	GroupAttending Group = "ATTENDING"
)

// StateForGroup maps a recipient group to the waiting list state it targets
func StateForGroup(g Group) (EntrantState, error) {
	switch g {
	case GroupWaitlist:
		return StateEntered, nil
	case GroupSelected:
		return StateSelected, nil
	case GroupCancelled:
		return StateCanceled, nil
	case GroupAttending:
		return StateAccepted, nil
	}
	return StateNotIn, ErrInvalidGroup
}

// CategoryForGroup maps a recipient group to the category stamped on its
// notifications
func CategoryForGroup(g Group) Category {
	switch g {
	case GroupSelected:
		return CategorySelected
	case GroupCancelled:
		return CategoryCancelled
	case GroupAttending:
		return CategoryOrganizerMessage
	default:
		return CategoryWaitlist
	}
}

// Notification is one inbox item. Created once on fan-out; the only
// mutation afterwards is the read flag flipped by the recipient.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    Category  `json:"category"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewNotification creates an unread notification stamped with the current time
func NewNotification(id, userID, eventID, organizerID, title, body string, category Category) *Notification {
	return &Notification{
		ID:          id,
		UserID:      userID,
		EventID:     eventID,
		OrganizerID: organizerID,
		Title:       title,
		Body:        body,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate validates the notification fields
func (n *Notification) Validate() error {
	if n.UserID == "" {
		return ErrInvalidUserID
	}
	if n.EventID == "" {
		return ErrInvalidEventID
	}
	if n.OrganizerID == "" {
		return ErrInvalidOrganizerID
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// payloadPreviewMax caps the audit-log body preview
const payloadPreviewMax = 100

// NotificationLog is the append-only audit row: exactly one per organizer
// fan-out call, never mutated after creation. RecipientIDs holds only the
// recipients whose notification write was confirmed.
type NotificationLog struct {
	ID             string    `json:"id"`
	OrganizerID    string    `json:"organizer_id"`
	EventID        string    `json:"event_id"`
	Category       Category  `json:"category"`
	RecipientIDs   []string  `json:"recipient_ids"`
	PayloadPreview string    `json:"payload_preview"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewNotificationLog builds a log row, truncating the body to the preview
// cap. Plain character truncation; the display layer adds its own ellipsis.
func NewNotificationLog(id, organizerID, eventID string, category Category, recipientIDs []string, body string) *NotificationLog {
	if recipientIDs == nil {
		recipientIDs = []string{}
	}
	return &NotificationLog{
		ID:             id,
		OrganizerID:    organizerID,
		EventID:        eventID,
		Category:       category,
		RecipientIDs:   recipientIDs,
		PayloadPreview: TruncatePreview(body),
		CreatedAt:      time.Now().UTC(),
	}
}

// TruncatePreview cuts body to at most 100 characters, counting runes so a
// multi-byte body never splits mid-character.
func TruncatePreview(body string) string {
	r := []rune(body)
	if len(r) <= payloadPreviewMax {
		return body
	}
	return string(r[:payloadPreviewMax])
}
