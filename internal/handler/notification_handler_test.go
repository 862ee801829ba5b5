package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockNotifierService is a mock implementation of service.NotifierService
type MockNotifierService struct {
	mock.Mock
}

func (m *MockNotifierService) NotifyGroup(ctx context.Context, organizerID, eventID, title, body string, group domain.Group) ([]string, error) {
	args := m.Called(ctx, organizerID, eventID, title, body, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNotifierService) NotifyExplicitList(ctx context.Context, organizerID, eventID, title, body string, userIDs []string) ([]string, error) {
	args := m.Called(ctx, organizerID, eventID, title, body, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNotifierService) NotifyWin(ctx context.Context, organizerID, eventID, userID, title, body string) error {
	args := m.Called(ctx, organizerID, eventID, userID, title, body)
	return args.Error(0)
}

func (m *MockNotifierService) NotifyLose(ctx context.Context, organizerID, eventID, userID, title, body string) error {
	args := m.Called(ctx, organizerID, eventID, userID, title, body)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of service.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.InboxResponse), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) GetAuditLogs(ctx context.Context) ([]dto.NotificationLogResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NotificationLogResponse), args.Error(1)
}

func setupNotificationTestRouter(notifier *MockNotifierService, notifications *MockNotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(notifier, notifications)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/events/:event_id/notifications/users", handler.NotifyList)
	v1.POST("/events/:event_id/notifications/group", handler.NotifyGroup)
	v1.GET("/users/:user_id/notifications", handler.GetInbox)
	v1.GET("/users/:user_id/notifications/unread-count", handler.GetUnreadCount)
	v1.POST("/users/:user_id/notifications/:notification_id/read", handler.MarkRead)
	v1.GET("/admin/notification-logs", handler.GetAuditLogs)
	return router
}

func TestNotificationHandler_NotifyGroup_Success(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifier.On("NotifyGroup", mock.Anything, "org1", "event1", "Update", "Hello", domain.GroupWaitlist).
		Return([]string{"u1", "u2"}, nil)

	body, _ := json.Marshal(dto.NotifyGroupRequest{
		OrganizerID: "org1",
		Title:       "Update",
		Body:        "Hello",
		Group:       "WAITLIST",
	})

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/notifications/group", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.NotifyResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"u1", "u2"}, resp.DeliveredIDs)
	notifier.AssertExpectations(t)
}

func TestNotificationHandler_NotifyGroup_InvalidGroup(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	body, _ := json.Marshal(map[string]string{
		"organizer_id": "org1",
		"title":        "Update",
		"group":        "FRIENDS",
	})

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/notifications/group", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	notifier.AssertNotCalled(t, "NotifyGroup")
}

func TestNotificationHandler_NotifyGroup_PartialFailure(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	fanOutErr := &domain.FanOutError{
		Delivered: []string{"u1"},
		Failed:    []string{"u2"},
	}
	notifier.On("NotifyGroup", mock.Anything, "org1", "event1", "Update", "Hello", domain.GroupSelected).
		Return([]string{"u1"}, fanOutErr)

	body, _ := json.Marshal(dto.NotifyGroupRequest{
		OrganizerID: "org1",
		Title:       "Update",
		Body:        "Hello",
		Group:       "SELECTED",
	})

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/notifications/group", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FANOUT_PARTIAL_FAILURE", resp["code"])
}

func TestNotificationHandler_NotifyList_Success(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifier.On("NotifyExplicitList", mock.Anything, "org1", "event1", "Chosen", "You are in", []string{"u1", "u2"}).
		Return([]string{"u1"}, nil)

	body, _ := json.Marshal(dto.NotifyListRequest{
		OrganizerID: "org1",
		Title:       "Chosen",
		Body:        "You are in",
		UserIDs:     []string{"u1", "u2"},
	})

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/notifications/users", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.NotifyResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestNotificationHandler_GetInbox(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifications.On("GetInbox", mock.Anything, "u1").Return(&dto.InboxResponse{
		UserID:        "u1",
		Notifications: []dto.NotificationResponse{{ID: "n1", Title: "Hi"}},
		UnreadCount:   1,
	}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/users/u1/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.InboxResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Notifications, 1)
	assert.Equal(t, int64(1), resp.UnreadCount)
}

func TestNotificationHandler_GetUnreadCount(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifications.On("GetUnreadCount", mock.Anything, "u1").Return(int64(3), nil)

	req, _ := http.NewRequest("GET", "/api/v1/users/u1/notifications/unread-count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.UnreadCountResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, int64(3), resp.UnreadCount)
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifications.On("MarkRead", mock.Anything, "u1", "ghost").Return(domain.ErrNotificationNotFound)

	req, _ := http.NewRequest("POST", "/api/v1/users/u1/notifications/ghost/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestNotificationHandler_GetAuditLogs(t *testing.T) {
	notifier := new(MockNotifierService)
	notifications := new(MockNotificationService)
	router := setupNotificationTestRouter(notifier, notifications)

	notifications.On("GetAuditLogs", mock.Anything).Return([]dto.NotificationLogResponse{
		{ID: "log1", Title: "SELECTED • event1", RecipientCount: 3},
	}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/admin/notification-logs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []dto.NotificationLogResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "SELECTED • event1", resp[0].Title)
}
