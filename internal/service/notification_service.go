package service

import (
	"context"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
	"github.com/evreg/lottery-service/internal/presenter"
	"github.com/evreg/lottery-service/internal/repository"
	"github.com/evreg/lottery-service/pkg/logger"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// NotificationService defines the interface for the recipient-facing inbox
// and the organizer-facing audit log listing
type NotificationService interface {
	// GetInbox returns a user's notifications, newest first, with the
	// unread badge count.
	GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error)

	// MarkRead flips one notification's read flag and lowers the badge.
	MarkRead(ctx context.Context, userID, notificationID string) error

	// GetUnreadCount returns the user's unread badge count on its own,
	// degrading to zero when the counter is unavailable.
	GetUnreadCount(ctx context.Context, userID string) (int64, error)

	// GetAuditLogs returns every audit row formatted for display, newest
	// first.
	GetAuditLogs(ctx context.Context) ([]dto.NotificationLogResponse, error)
}

// notificationService implements NotificationService
type notificationService struct {
	notifications repository.NotificationStore
	audit         repository.AuditStore
	unread        repository.UnreadCounter
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications repository.NotificationStore,
	audit repository.AuditStore,
	unread repository.UnreadCounter,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		audit:         audit,
		unread:        unread,
	}
}

// GetInbox returns a user's notifications with the unread count
func (s *notificationService) GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.get_inbox")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	notifications, err := s.notifications.GetForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dto.NotificationFromDomain(n))
	}

	// The badge is best-effort; a counter failure degrades to zero instead
	// of failing the inbox read.
	var unreadCount int64
	if s.unread != nil {
		unreadCount, err = s.unread.Get(ctx, userID)
		if err != nil {
			logger.Get().Warn("unread count read failed",
				zap.String("user_id", userID), zap.Error(err))
			unreadCount = 0
		}
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "")
	return &dto.InboxResponse{
		UserID:        userID,
		Notifications: out,
		UnreadCount:   unreadCount,
	}, nil
}

// MarkRead flips one notification's read flag
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.mark_read")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("notification_id", notificationID),
	)

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return domain.ErrInvalidUserID
	}
	if notificationID == "" {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNotificationNotFound
	}

	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if s.unread != nil {
		if err := s.unread.Decr(ctx, userID); err != nil {
			logger.Get().Warn("unread counter decrement failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetUnreadCount returns the user's unread badge count
func (s *notificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.get_unread_count")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return 0, domain.ErrInvalidUserID
	}

	if s.unread == nil {
		span.SetStatus(codes.Ok, "")
		return 0, nil
	}

	n, err := s.unread.Get(ctx, userID)
	if err != nil {
		logger.Get().Warn("unread count read failed",
			zap.String("user_id", userID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Ok, "degraded")
		return 0, nil
	}

	span.SetAttributes(attribute.Int64("unread", n))
	span.SetStatus(codes.Ok, "")
	return n, nil
}

// GetAuditLogs returns every audit row formatted for display
func (s *notificationService) GetAuditLogs(ctx context.Context) ([]dto.NotificationLogResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.get_audit_logs")
	defer span.End()

	logs, err := s.audit.GetAllLogs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]dto.NotificationLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, presenter.LogToResponse(l))
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}
