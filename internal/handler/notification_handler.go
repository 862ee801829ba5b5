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

// NotificationHandler handles organizer fan-out, recipient inbox and audit
// log HTTP requests
type NotificationHandler struct {
	notifierService     service.NotifierService
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifierService service.NotifierService, notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifierService:     notifierService,
		notificationService: notificationService,
	}
}

// NotifyGroup handles POST /events/:event_id/notifications/group
func (h *NotificationHandler) NotifyGroup(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.notify_group")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")

	var req dto.NotifyGroupRequest
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
		attribute.String("group", req.Group),
	)

	delivered, err := h.notifierService.NotifyGroup(ctx, req.OrganizerID, eventID, req.Title, req.Body, domain.Group(req.Group))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, delivered)
		return
	}

	span.SetAttributes(attribute.Int("delivered", len(delivered)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NotifyResponse{
		EventID:      eventID,
		DeliveredIDs: delivered,
		Count:        len(delivered),
	})
}

// NotifyList handles POST /events/:event_id/notifications/users
func (h *NotificationHandler) NotifyList(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.notify_list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")

	var req dto.NotifyListRequest
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
		attribute.Int("candidates", len(req.UserIDs)),
	)

	delivered, err := h.notifierService.NotifyExplicitList(ctx, req.OrganizerID, eventID, req.Title, req.Body, req.UserIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, delivered)
		return
	}

	span.SetAttributes(attribute.Int("delivered", len(delivered)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NotifyResponse{
		EventID:      eventID,
		DeliveredIDs: delivered,
		Count:        len(delivered),
	})
}

// GetInbox handles GET /users/:user_id/notifications
func (h *NotificationHandler) GetInbox(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.get_inbox")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("user_id")
	span.SetAttributes(attribute.String("user_id", userID))

	result, err := h.notificationService.GetInbox(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, nil)
		return
	}

	span.SetAttributes(attribute.Int("count", len(result.Notifications)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// MarkRead handles POST /users/:user_id/notifications/:notification_id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.mark_read")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("user_id")
	notificationID := c.Param("notification_id")

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("notification_id", notificationID),
	)

	if err := h.notificationService.MarkRead(ctx, userID, notificationID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, nil)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetUnreadCount handles GET /users/:user_id/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.get_unread_count")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("user_id")
	span.SetAttributes(attribute.String("user_id", userID))

	n, err := h.notificationService.GetUnreadCount(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, nil)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.UnreadCountResponse{UserID: userID, UnreadCount: n})
}

// GetAuditLogs handles GET /admin/notification-logs
func (h *NotificationHandler) GetAuditLogs(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.get_audit_logs")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.notificationService.GetAuditLogs(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err, nil)
		return
	}

	span.SetAttributes(attribute.Int("count", len(result)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError maps domain errors to HTTP responses. delivered carries the
// recipients already written when a fan-out fails part way.
func (h *NotificationHandler) handleError(c *gin.Context, err error, delivered []string) {
	var fanOutErr *domain.FanOutError
	var auditErr *domain.AuditWriteError

	switch {
	case errors.As(err, &fanOutErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         fanOutErr.Error(),
			"code":          "FANOUT_PARTIAL_FAILURE",
			"delivered_ids": fanOutErr.Delivered,
			"failed_ids":    fanOutErr.Failed,
		})
	case errors.As(err, &auditErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         auditErr.Error(),
			"code":          "AUDIT_WRITE_FAILED",
			"delivered_ids": auditErr.Delivered,
		})
	case errors.Is(err, domain.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, domain.ErrInvalidEventID):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
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
