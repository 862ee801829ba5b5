package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	// Waiting list errors
	ErrAlreadyInList     = errors.New("entrant already in waiting list")
	ErrNotInList         = errors.New("entrant not in waiting list")
	ErrCapacityExceeded  = errors.New("waiting list is at capacity")
	ErrUnknownState      = errors.New("unknown waiting list state")
	ErrIllegalTransition = errors.New("illegal waiting list state transition")

	// Lottery errors
	ErrDrawInProgress  = errors.New("a lottery draw is already running for this event")
	ErrInvalidDrawSize = errors.New("number of entrants to select must not be negative")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Validation errors
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidEventID     = errors.New("invalid event id")
	ErrInvalidOrganizerID = errors.New("invalid organizer id")
	ErrInvalidGroup       = errors.New("invalid recipient group")
	ErrEmptyTitle         = errors.New("notification title must not be empty")
)

// FanOutError reports a partially failed fan-out. Notifications that were
// written before the failure stand (at-least-once semantics, no rollback);
// the caller learns which recipients were missed.
type FanOutError struct {
	Delivered []string
	Failed    []string
	Causes    []error
}

func (e *FanOutError) Error() string {
	return fmt.Sprintf("fan-out partially failed: %d delivered, %d failed (%s)",
		len(e.Delivered), len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *FanOutError) Unwrap() error {
	if len(e.Causes) == 0 {
		return nil
	}
	return e.Causes[0]
}

// AuditWriteError reports that the audit log row could not be recorded after
// a fan-out. The notifications were delivered but the organizer action is
// unaudited; this is a compliance gap and must never be swallowed.
type AuditWriteError struct {
	Delivered []string
	Cause     error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit log write failed after delivering %d notifications: %v",
		len(e.Delivered), e.Cause)
}

func (e *AuditWriteError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err is a caller input error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidOrganizerID) ||
		errors.Is(err, ErrInvalidGroup) ||
		errors.Is(err, ErrInvalidDrawSize) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrUnknownState)
}
