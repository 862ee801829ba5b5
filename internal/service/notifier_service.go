package service

import (
	"context"
	"sync"
	"time"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/metrics"
	"github.com/evreg/lottery-service/internal/repository"
	"github.com/evreg/lottery-service/pkg/logger"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// NotifierService defines the interface for organizer notification fan-out
type NotifierService interface {
	// NotifyGroup notifies every opted-in entrant whose state matches the
	// group. Returns the recipients whose notification write was confirmed.
	NotifyGroup(ctx context.Context, organizerID, eventID, title, body string, group domain.Group) ([]string, error)

	// NotifyExplicitList notifies an explicit recipient list, still applying
	// the opt-in filter.
	NotifyExplicitList(ctx context.Context, organizerID, eventID, title, body string, userIDs []string) ([]string, error)

	// NotifyWin notifies a single lottery winner.
	NotifyWin(ctx context.Context, organizerID, eventID, userID, title, body string) error

	// NotifyLose notifies a single entrant not selected by a draw.
	NotifyLose(ctx context.Context, organizerID, eventID, userID, title, body string) error
}

// notifierService implements NotifierService
type notifierService struct {
	entrants      repository.EntrantSource
	notifications repository.NotificationStore
	audit         repository.AuditStore
	unread        repository.UnreadCounter
	publisher     DeliveryPublisher
	concurrency   int
	writeTimeout  time.Duration
}

// NotifierConfig contains tuning for the fan-out path
type NotifierConfig struct {
	// FanOutConcurrency bounds how many notification writes run at once
	FanOutConcurrency int
	// WriteTimeout bounds each individual store write
	WriteTimeout time.Duration
}

// NewNotifierService creates a new notifier service
func NewNotifierService(
	entrants repository.EntrantSource,
	notifications repository.NotificationStore,
	audit repository.AuditStore,
	unread repository.UnreadCounter,
	publisher DeliveryPublisher,
	cfg *NotifierConfig,
) NotifierService {
	concurrency := 16
	writeTimeout := 5 * time.Second
	if cfg != nil {
		if cfg.FanOutConcurrency > 0 {
			concurrency = cfg.FanOutConcurrency
		}
		if cfg.WriteTimeout > 0 {
			writeTimeout = cfg.WriteTimeout
		}
	}
	if publisher == nil {
		publisher = NewNoOpDeliveryPublisher()
	}
	return &notifierService{
		entrants:      entrants,
		notifications: notifications,
		audit:         audit,
		unread:        unread,
		publisher:     publisher,
		concurrency:   concurrency,
		writeTimeout:  writeTimeout,
	}
}

// NotifyGroup resolves the group, filters to opted-in users and fans out
func (s *notifierService) NotifyGroup(ctx context.Context, organizerID, eventID, title, body string, group domain.Group) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notifier.notify_group")
	defer span.End()

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.String("event_id", eventID),
		attribute.String("group", string(group)),
	)

	if err := validateNotifyArgs(organizerID, eventID, title); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if _, err := domain.StateForGroup(group); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates, err := s.entrants.GetEntrantIDs(ctx, eventID, group)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return s.fanOut(ctx, organizerID, eventID, title, body, domain.CategoryForGroup(group), candidates, true)
}

// NotifyExplicitList fans out to a caller-supplied recipient list
func (s *notifierService) NotifyExplicitList(ctx context.Context, organizerID, eventID, title, body string, userIDs []string) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notifier.notify_explicit_list")
	defer span.End()

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.String("event_id", eventID),
		attribute.Int("candidates", len(userIDs)),
	)

	if err := validateNotifyArgs(organizerID, eventID, title); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return s.fanOut(ctx, organizerID, eventID, title, body, domain.CategoryChosenSignup, userIDs, true)
}

// NotifyWin notifies one winner, producing its own audit row
func (s *notifierService) NotifyWin(ctx context.Context, organizerID, eventID, userID, title, body string) error {
	return s.notifyOne(ctx, organizerID, eventID, userID, title, body, domain.CategoryLotteryWin)
}

// NotifyLose notifies one non-selected entrant, producing its own audit row
func (s *notifierService) NotifyLose(ctx context.Context, organizerID, eventID, userID, title, body string) error {
	return s.notifyOne(ctx, organizerID, eventID, userID, title, body, domain.CategoryLotteryLose)
}

func (s *notifierService) notifyOne(ctx context.Context, organizerID, eventID, userID, title, body string, category domain.Category) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notifier.notify_one")
	defer span.End()

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.String("category", category.String()),
	)

	if err := validateNotifyArgs(organizerID, eventID, title); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return domain.ErrInvalidUserID
	}

	_, err := s.fanOut(ctx, organizerID, eventID, title, body, category, []string{userID}, true)
	return err
}

// fanOut writes one notification per recipient concurrently, then records
// exactly one audit row after every write has settled. Written notifications
// are never rolled back; a partial failure surfaces as a FanOutError carrying
// both sides.
func (s *notifierService) fanOut(ctx context.Context, organizerID, eventID, title, body string, category domain.Category, candidates []string, filterOptIn bool) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notifier.fan_out")
	defer span.End()

	start := time.Now()
	log := logger.Get()

	if metrics.ActiveFanOuts != nil {
		metrics.ActiveFanOuts.Inc(ctx)
		defer metrics.ActiveFanOuts.Dec(ctx)
	}

	recipients := candidates
	if filterOptIn && len(candidates) > 0 {
		var err error
		recipients, err = s.entrants.FilterOptedIn(ctx, eventID, candidates)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("recipients", len(recipients)),
	)

	delivered, failed, causes := s.writeAll(ctx, organizerID, eventID, title, body, category, recipients)

	// The audit row is the join-point: it is written only after every
	// per-recipient write has settled, and it lists only confirmed writes.
	auditLog := domain.NewNotificationLog(uuid.New().String(), organizerID, eventID, category, delivered, body)
	if err := s.audit.Record(ctx, auditLog); err != nil {
		if metrics.AuditWriteFailures != nil {
			metrics.AuditWriteFailures.Inc(ctx, attribute.String("category", category.String()))
		}
		log.Error("audit log write failed after fan-out",
			zap.String("organizer_id", organizerID),
			zap.String("event_id", eventID),
			zap.Int("delivered", len(delivered)),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit write failed")
		return delivered, &domain.AuditWriteError{Delivered: delivered, Cause: err}
	}
	if metrics.AuditWrites != nil {
		metrics.AuditWrites.Inc(ctx, attribute.String("category", category.String()))
	}

	metrics.RecordFanOut(ctx, category.String(), len(delivered), len(failed), time.Since(start).Seconds())

	if len(failed) > 0 {
		log.Warn("fan-out partially failed",
			zap.String("event_id", eventID),
			zap.Int("delivered", len(delivered)),
			zap.Int("failed", len(failed)),
		)
		span.SetStatus(codes.Error, "partial failure")
		return delivered, &domain.FanOutError{Delivered: delivered, Failed: failed, Causes: causes}
	}

	span.SetStatus(codes.Ok, "")
	return delivered, nil
}

// writeAll runs the per-recipient writes with bounded concurrency and waits
// for all of them. Order of delivered follows recipient order.
func (s *notifierService) writeAll(ctx context.Context, organizerID, eventID, title, body string, category domain.Category, recipients []string) (delivered, failed []string, causes []error) {
	if len(recipients) == 0 {
		return []string{}, nil, nil
	}

	type outcome struct {
		err error
	}
	outcomes := make([]outcome, len(recipients))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for i, userID := range recipients {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i].err = s.writeOne(ctx, organizerID, eventID, userID, title, body, category)
		}(i, userID)
	}
	wg.Wait()

	delivered = make([]string, 0, len(recipients))
	for i, userID := range recipients {
		if outcomes[i].err != nil {
			failed = append(failed, userID)
			causes = append(causes, outcomes[i].err)
			continue
		}
		delivered = append(delivered, userID)
	}
	return delivered, failed, causes
}

func (s *notifierService) writeOne(ctx context.Context, organizerID, eventID, userID, title, body string, category domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	n := domain.NewNotification(uuid.New().String(), userID, eventID, organizerID, title, body, category)
	if err := n.Validate(); err != nil {
		return err
	}

	if err := s.notifications.Add(ctx, n); err != nil {
		return err
	}

	// Badge counter and delivery event are best-effort: the notification is
	// already durable, so their failure must not fail the recipient.
	if s.unread != nil {
		if err := s.unread.Incr(ctx, userID); err != nil {
			logger.Get().Warn("unread counter increment failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
	if err := s.publisher.PublishNotificationCreated(ctx, n); err != nil {
		logger.Get().Warn("delivery event publish failed",
			zap.String("notification_id", n.ID), zap.Error(err))
	}
	return nil
}

func validateNotifyArgs(organizerID, eventID, title string) error {
	if organizerID == "" {
		return domain.ErrInvalidOrganizerID
	}
	if eventID == "" {
		return domain.ErrInvalidEventID
	}
	if title == "" {
		return domain.ErrEmptyTitle
	}
	return nil
}
