package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
	"github.com/evreg/lottery-service/internal/metrics"
	"github.com/evreg/lottery-service/internal/repository"
	"github.com/evreg/lottery-service/pkg/logger"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// winTitle/loseTitle are the result notification texts sent after a draw
const (
	winTitle  = "You were selected!"
	winBody   = "Congratulations, you won the lottery for this event. Accept or decline your spot."
	loseTitle = "Lottery result"
	loseBody  = "You were not selected this time. You stay on the waiting list for redraws."
)

// LotteryService defines the interface for lottery draw orchestration
type LotteryService interface {
	// Draw runs a lottery over the event's waiting list, persists the new
	// states and notifies every affected entrant.
	Draw(ctx context.Context, eventID string, req *dto.DrawRequest) (*dto.DrawResponse, error)
}

// lotteryService implements LotteryService
type lotteryService struct {
	events   repository.EventRepository
	waitlist repository.WaitlistRepository
	lock     repository.DrawLock
	notifier NotifierService
	lottery  *domain.Lottery
	lockTTL  time.Duration
}

// LotteryConfig contains tuning for the draw path
type LotteryConfig struct {
	// DrawLockTTL bounds how long a crashed draw blocks the next one
	DrawLockTTL time.Duration
}

// NewLotteryService creates a new lottery service
func NewLotteryService(
	events repository.EventRepository,
	waitlist repository.WaitlistRepository,
	lock repository.DrawLock,
	notifier NotifierService,
	rng *rand.Rand,
	cfg *LotteryConfig,
) LotteryService {
	lockTTL := 30 * time.Second
	if cfg != nil && cfg.DrawLockTTL > 0 {
		lockTTL = cfg.DrawLockTTL
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &lotteryService{
		events:   events,
		waitlist: waitlist,
		lock:     lock,
		notifier: notifier,
		lottery:  domain.NewLottery(rng),
		lockTTL:  lockTTL,
	}
}

// Draw runs a lottery draw for one event
func (s *lotteryService) Draw(ctx context.Context, eventID string, req *dto.DrawRequest) (*dto.DrawResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lottery.draw")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if req == nil || req.OrganizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer_id")
		return nil, domain.ErrInvalidOrganizerID
	}
	if req.NumSelect < 0 {
		span.SetStatus(codes.Error, "invalid num_select")
		return nil, domain.ErrInvalidDrawSize
	}

	span.SetAttributes(
		attribute.String("organizer_id", req.OrganizerID),
		attribute.Int("num_select", req.NumSelect),
		attribute.Bool("reselect", req.Reselect),
	)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	acquired, err := s.lock.Acquire(ctx, eventID, s.lockTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !acquired {
		if metrics.DrawsRejected != nil {
			metrics.DrawsRejected.Inc(ctx, attribute.String("event_id", eventID))
		}
		span.SetStatus(codes.Error, "draw in progress")
		return nil, domain.ErrDrawInProgress
	}
	defer func() {
		if err := s.lock.Release(ctx, eventID); err != nil {
			logger.Get().Warn("draw lock release failed",
				zap.String("event_id", eventID), zap.Error(err))
		}
	}()

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entries := wl.Entries()
	if req.Reselect {
		s.lottery.Reselect(entries, req.NumSelect)
	} else {
		s.lottery.Draw(entries, req.NumSelect)
	}
	wl.SetEntries(entries)

	if err := s.waitlist.SaveStates(ctx, eventID, entries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	selected := wl.EntrantsIn(domain.StateSelected)
	notSelected := wl.EntrantsIn(domain.StateNotSelected)

	metrics.RecordDraw(ctx, eventID, len(selected))

	// Result notifications are best-effort after the draw is durable: a
	// write failure leaves the entrant selected but unnotified, which the
	// organizer can repair with a group notification.
	s.notifyResults(ctx, event.OrganizerID, eventID, selected, notSelected)

	span.SetAttributes(
		attribute.Int("selected", len(selected)),
		attribute.Int("not_selected", len(notSelected)),
	)
	span.SetStatus(codes.Ok, "")

	return &dto.DrawResponse{
		EventID:     eventID,
		Selected:    selected,
		NotSelected: notSelected,
		DrawnAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// notifyResults sends one win or lose notification per affected entrant.
// Each carries its own audit row.
func (s *lotteryService) notifyResults(ctx context.Context, organizerID, eventID string, selected, notSelected []string) {
	log := logger.Get()
	for _, userID := range selected {
		if err := s.notifier.NotifyWin(ctx, organizerID, eventID, userID, winTitle, winBody); err != nil {
			log.Warn("win notification failed",
				zap.String("event_id", eventID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	for _, userID := range notSelected {
		if err := s.notifier.NotifyLose(ctx, organizerID, eventID, userID, loseTitle, loseBody); err != nil {
			log.Warn("lose notification failed",
				zap.String("event_id", eventID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
}
