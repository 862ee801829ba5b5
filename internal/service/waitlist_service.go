package service

import (
	"context"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
	"github.com/evreg/lottery-service/internal/metrics"
	"github.com/evreg/lottery-service/internal/repository"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WaitlistService defines the interface for waiting list business logic
type WaitlistService interface {
	// CreateEvent registers an event together with its waiting list
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event by id
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// Join adds an entrant to the event's waiting list
	Join(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)

	// Leave removes an entrant from the waiting list entirely
	Leave(ctx context.Context, eventID, userID string) error

	// GetWaitlist returns the full waiting list in join order
	GetWaitlist(ctx context.Context, eventID string) (*dto.WaitlistResponse, error)

	// GetEntrantStatus returns one entrant's membership and state
	GetEntrantStatus(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)

	// Accept moves a selected entrant to ACCEPTED
	Accept(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)

	// Decline moves a selected entrant to DECLINED
	Decline(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)

	// Cancel moves an accepted entrant to CANCELED
	Cancel(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)

	// Rejoin moves a declined or canceled entrant back to ENTERED
	Rejoin(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)
}

// waitlistService implements WaitlistService
type waitlistService struct {
	events   repository.EventRepository
	waitlist repository.WaitlistRepository
}

// NewWaitlistService creates a new waitlist service
func NewWaitlistService(events repository.EventRepository, waitlist repository.WaitlistRepository) WaitlistService {
	return &waitlistService{events: events, waitlist: waitlist}
}

// CreateEvent registers an event together with its waiting list
func (s *waitlistService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.create_event")
	defer span.End()

	if req == nil || req.OrganizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer_id")
		return nil, domain.ErrInvalidOrganizerID
	}
	if req.Title == "" {
		span.SetStatus(codes.Error, "invalid title")
		return nil, domain.ErrEmptyTitle
	}

	capacity := req.WaitingListCapacity
	if capacity == 0 {
		capacity = domain.UnlimitedCapacity
	}

	event := domain.NewEvent(uuid.New().String(), req.OrganizerID, req.Title, req.Capacity, capacity)
	event.Description = req.Description

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("organizer_id", event.OrganizerID),
	)

	if err := s.events.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// GetEvent retrieves an event by id
func (s *waitlistService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.get_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// Join adds an entrant to the event's waiting list
func (s *waitlistService) Join(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.join")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := wl.AddEntrant(userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entry := domain.WaitingListEntry{UserID: userID, State: domain.StateEntered}
	if err := s.waitlist.SaveEntry(ctx, eventID, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if metrics.WaitlistJoins != nil {
		metrics.WaitlistJoins.Inc(ctx, attribute.String("event_id", eventID))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.EntrantStatusResponse{
		EventID: eventID,
		UserID:  userID,
		InList:  true,
		State:   domain.StateEntered.String(),
	}, nil
}

// Leave removes an entrant from the waiting list entirely
func (s *waitlistService) Leave(ctx context.Context, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.leave")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return domain.ErrInvalidUserID
	}

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := wl.RemoveEntrant(userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.waitlist.DeleteEntry(ctx, eventID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if metrics.WaitlistLeaves != nil {
		metrics.WaitlistLeaves.Inc(ctx, attribute.String("event_id", eventID))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetWaitlist returns the full waiting list in join order
func (s *waitlistService) GetWaitlist(ctx context.Context, eventID string) (*dto.WaitlistResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.get_waitlist")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("entries", wl.NumEntrants()))
	span.SetStatus(codes.Ok, "")
	return dto.WaitlistFromDomain(eventID, wl), nil
}

// GetEntrantStatus returns one entrant's membership and state
func (s *waitlistService) GetEntrantStatus(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.get_entrant_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &dto.EntrantStatusResponse{
		EventID: eventID,
		UserID:  userID,
		InList:  wl.CheckEntrant(userID),
		State:   wl.StateOf(userID).String(),
	}, nil
}

// Accept moves a selected entrant to ACCEPTED
func (s *waitlistService) Accept(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	return s.transition(ctx, eventID, userID, domain.StateAccepted)
}

// Decline moves a selected entrant to DECLINED
func (s *waitlistService) Decline(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	return s.transition(ctx, eventID, userID, domain.StateDeclined)
}

// Cancel moves an accepted entrant to CANCELED
func (s *waitlistService) Cancel(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	return s.transition(ctx, eventID, userID, domain.StateCanceled)
}

// Rejoin moves a declined or canceled entrant back to ENTERED
func (s *waitlistService) Rejoin(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	return s.transition(ctx, eventID, userID, domain.StateEntered)
}

// transition applies one legal state change and persists it
func (s *waitlistService) transition(ctx context.Context, eventID, userID string, to domain.EntrantState) (*dto.EntrantStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.waitlist.transition")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.String("to", to.String()),
	)

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	wl, err := s.waitlist.Load(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	from := wl.StateOf(userID)
	if err := wl.Transition(userID, to); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entry := domain.WaitingListEntry{UserID: userID, State: to}
	if err := s.waitlist.SaveEntry(ctx, eventID, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordTransition(ctx, eventID, from.String(), to.String())

	span.SetStatus(codes.Ok, "")
	return &dto.EntrantStatusResponse{
		EventID: eventID,
		UserID:  userID,
		InList:  true,
		State:   to.String(),
	}, nil
}
