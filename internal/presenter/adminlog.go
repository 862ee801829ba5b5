package presenter

import (
	"fmt"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
)

// displayBodyMax is the display cutoff for audit log bodies. Longer bodies
// are cut to 99 characters plus an ellipsis, exactly 100 in total.
const displayBodyMax = 100

// FormatTitle renders the audit row heading
func FormatTitle(log *domain.NotificationLog) string {
	return fmt.Sprintf("%s • %s", log.Category.String(), log.EventID)
}

// FormatBody renders the audit row body, shortening long previews with a
// trailing ellipsis
func FormatBody(log *domain.NotificationLog) string {
	r := []rune(log.PayloadPreview)
	if len(r) <= displayBodyMax {
		return log.PayloadPreview
	}
	return string(r[:displayBodyMax-1]) + "…"
}

// FormatMeta renders the send time and organizer line. A missing timestamp
// shows as "?" rather than a bogus epoch time.
func FormatMeta(log *domain.NotificationLog) string {
	if log.CreatedAt.IsZero() {
		return fmt.Sprintf("Sent at ?, org=%s", log.OrganizerID)
	}
	return fmt.Sprintf("Sent at %s, org=%s", log.CreatedAt.Local().Format("15:04"), log.OrganizerID)
}

// LogToResponse renders one audit row for the admin API
func LogToResponse(log *domain.NotificationLog) dto.NotificationLogResponse {
	return dto.NotificationLogResponse{
		ID:             log.ID,
		Title:          FormatTitle(log),
		Body:           FormatBody(log),
		Meta:           FormatMeta(log),
		Category:       log.Category.String(),
		RecipientIDs:   log.RecipientIDs,
		RecipientCount: len(log.RecipientIDs),
	}
}
