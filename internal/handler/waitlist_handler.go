package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
	"github.com/evreg/lottery-service/internal/service"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WaitlistHandler handles event and waiting list HTTP requests
type WaitlistHandler struct {
	waitlistService service.WaitlistService
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(waitlistService service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlistService: waitlistService}
}

// CreateEvent handles POST /events
func (h *WaitlistHandler) CreateEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.create_event")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(attribute.String("organizer_id", req.OrganizerID))

	result, err := h.waitlistService.CreateEvent(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("event_id", result.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// GetEvent handles GET /events/:event_id
func (h *WaitlistHandler) GetEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.get_event")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.waitlistService.GetEvent(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// Join handles POST /events/:event_id/waitlist
func (h *WaitlistHandler) Join(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.join")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")

	var req dto.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", req.UserID),
	)

	result, err := h.waitlistService.Join(ctx, eventID, req.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// Leave handles DELETE /events/:event_id/waitlist/:user_id
func (h *WaitlistHandler) Leave(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.leave")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	userID := c.Param("user_id")

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if err := h.waitlistService.Leave(ctx, eventID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetWaitlist handles GET /events/:event_id/waitlist
func (h *WaitlistHandler) GetWaitlist(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.get_waitlist")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.waitlistService.GetWaitlist(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// GetStatus handles GET /events/:event_id/waitlist/:user_id
func (h *WaitlistHandler) GetStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.waitlist.get_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	userID := c.Param("user_id")

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	result, err := h.waitlistService.GetEntrantStatus(ctx, eventID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// Accept handles POST /events/:event_id/waitlist/:user_id/accept
func (h *WaitlistHandler) Accept(c *gin.Context) {
	h.transition(c, "handler.waitlist.accept", h.waitlistService.Accept)
}

// Decline handles POST /events/:event_id/waitlist/:user_id/decline
func (h *WaitlistHandler) Decline(c *gin.Context) {
	h.transition(c, "handler.waitlist.decline", h.waitlistService.Decline)
}

// Cancel handles POST /events/:event_id/waitlist/:user_id/cancel
func (h *WaitlistHandler) Cancel(c *gin.Context) {
	h.transition(c, "handler.waitlist.cancel", h.waitlistService.Cancel)
}

// Rejoin handles POST /events/:event_id/waitlist/:user_id/rejoin
func (h *WaitlistHandler) Rejoin(c *gin.Context) {
	h.transition(c, "handler.waitlist.rejoin", h.waitlistService.Rejoin)
}

func (h *WaitlistHandler) transition(c *gin.Context, spanName string, op func(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error)) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	userID := c.Param("user_id")

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	result, err := op(ctx, eventID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError maps domain errors to HTTP responses
func (h *WaitlistHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEventID):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrNotInList):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_IN_LIST",
		})
	case errors.Is(err, domain.ErrAlreadyInList):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ALREADY_IN_LIST",
		})
	case errors.Is(err, domain.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "CAPACITY_EXCEEDED",
			Message: "The waiting list for this event is full",
		})
	case errors.Is(err, domain.ErrIllegalTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ILLEGAL_TRANSITION",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
