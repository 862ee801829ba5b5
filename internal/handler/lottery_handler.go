package handler

import (
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

// LotteryHandler handles lottery draw HTTP requests
type LotteryHandler struct {
	lotteryService service.LotteryService
}

// NewLotteryHandler creates a new lottery handler
func NewLotteryHandler(lotteryService service.LotteryService) *LotteryHandler {
	return &LotteryHandler{lotteryService: lotteryService}
}

// Draw handles POST /events/:event_id/lottery/draw
func (h *LotteryHandler) Draw(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.lottery.draw")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")

	var req dto.DrawRequest
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
		attribute.String("organizer_id", req.OrganizerID),
		attribute.Int("num_select", req.NumSelect),
		attribute.Bool("reselect", req.Reselect),
	)

	result, err := h.lotteryService.Draw(ctx, eventID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("selected", len(result.Selected)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// Reselect handles POST /events/:event_id/lottery/reselect. It redraws
// only the entrants who have not responded yet.
func (h *LotteryHandler) Reselect(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.lottery.reselect")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")

	var req dto.DrawRequest
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
	req.Reselect = true

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("organizer_id", req.OrganizerID),
		attribute.Int("num_select", req.NumSelect),
	)

	result, err := h.lotteryService.Draw(ctx, eventID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("selected", len(result.Selected)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError maps domain errors to HTTP responses
func (h *LotteryHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEventID):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrDrawInProgress):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "DRAW_IN_PROGRESS",
			Message: "Another draw for this event is still running",
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
