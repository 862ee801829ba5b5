package repository

import (
	"context"
	"time"

	"github.com/evreg/lottery-service/internal/domain"
)

// EntrantSource resolves recipient sets for notification fan-out.
type EntrantSource interface {
	// GetEntrantIDs returns the ids of entrants on the event's waiting list
	// whose state matches the given group.
	GetEntrantIDs(ctx context.Context, eventID string, group domain.Group) ([]string, error)

	// FilterOptedIn returns the subset of candidateIDs that have
	// notifications enabled. A failure of any underlying lookup fails the
	// whole call; no partial lists are returned.
	FilterOptedIn(ctx context.Context, eventID string, candidateIDs []string) ([]string, error)
}

// NotificationStore persists per-user inbox notifications.
type NotificationStore interface {
	Add(ctx context.Context, n *domain.Notification) error
	// GetForUser returns the user's notifications ordered newest-first.
	GetForUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// AuditStore persists the append-only organizer notification log.
type AuditStore interface {
	Record(ctx context.Context, log *domain.NotificationLog) error
	// GetAllLogs returns audit rows ordered newest-first.
	GetAllLogs(ctx context.Context) ([]*domain.NotificationLog, error)
}

// EventRepository persists events and their waiting list configuration.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, eventID string) (*domain.Event, error)
}

// WaitlistRepository loads and stores a single event's waiting list.
type WaitlistRepository interface {
	// Load restores the waiting list for an event, preserving join order.
	Load(ctx context.Context, eventID string) (*domain.WaitingList, error)
	// SaveEntry upserts one entrant's row.
	SaveEntry(ctx context.Context, eventID string, entry domain.WaitingListEntry) error
	// DeleteEntry removes one entrant's row entirely.
	DeleteEntry(ctx context.Context, eventID, userID string) error
	// SaveStates writes the post-draw state of every entry in one batch.
	SaveStates(ctx context.Context, eventID string, entries []domain.WaitingListEntry) error
}

// UnreadCounter tracks per-user unread notification counts.
type UnreadCounter interface {
	Incr(ctx context.Context, userID string) error
	Decr(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (int64, error)
}

// DrawLock serializes lottery draws per event.
type DrawLock interface {
	// Acquire returns false if another draw currently holds the lock.
	Acquire(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, eventID string) error
}
