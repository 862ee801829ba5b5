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

// MockWaitlistService is a mock implementation of service.WaitlistService
type MockWaitlistService struct {
	mock.Mock
}

func (m *MockWaitlistService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockWaitlistService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockWaitlistService) Join(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func (m *MockWaitlistService) Leave(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}

func (m *MockWaitlistService) GetWaitlist(ctx context.Context, eventID string) (*dto.WaitlistResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WaitlistResponse), args.Error(1)
}

func (m *MockWaitlistService) GetEntrantStatus(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func (m *MockWaitlistService) Accept(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func (m *MockWaitlistService) Decline(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func (m *MockWaitlistService) Cancel(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func (m *MockWaitlistService) Rejoin(ctx context.Context, eventID, userID string) (*dto.EntrantStatusResponse, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntrantStatusResponse), args.Error(1)
}

func setupWaitlistTestRouter(svc *MockWaitlistService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWaitlistHandler(svc)

	router := gin.New()
	events := router.Group("/api/v1/events")
	events.POST("", handler.CreateEvent)
	events.GET("/:event_id", handler.GetEvent)
	events.POST("/:event_id/waitlist", handler.Join)
	events.GET("/:event_id/waitlist", handler.GetWaitlist)
	events.GET("/:event_id/waitlist/:user_id", handler.GetStatus)
	events.DELETE("/:event_id/waitlist/:user_id", handler.Leave)
	events.POST("/:event_id/waitlist/:user_id/accept", handler.Accept)
	events.POST("/:event_id/waitlist/:user_id/decline", handler.Decline)
	events.POST("/:event_id/waitlist/:user_id/cancel", handler.Cancel)
	events.POST("/:event_id/waitlist/:user_id/rejoin", handler.Rejoin)
	return router
}

func TestWaitlistHandler_Join_Success(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	svc.On("Join", mock.Anything, "event1", "u1").Return(&dto.EntrantStatusResponse{
		EventID: "event1",
		UserID:  "u1",
		InList:  true,
		State:   "ENTERED",
	}, nil)

	body, _ := json.Marshal(dto.JoinWaitlistRequest{UserID: "u1"})
	req, _ := http.NewRequest("POST", "/api/v1/events/event1/waitlist", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.EntrantStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ENTERED", resp.State)
	assert.True(t, resp.InList)
	svc.AssertExpectations(t)
}

func TestWaitlistHandler_Join_MissingUserID(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/waitlist", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Join")
}

func TestWaitlistHandler_Join_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "already in list",
			serviceErr: domain.ErrAlreadyInList,
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_IN_LIST",
		},
		{
			name:       "capacity exceeded",
			serviceErr: domain.ErrCapacityExceeded,
			wantStatus: http.StatusConflict,
			wantCode:   "CAPACITY_EXCEEDED",
		},
		{
			name:       "unknown event",
			serviceErr: domain.ErrInvalidEventID,
			wantStatus: http.StatusNotFound,
			wantCode:   "EVENT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWaitlistService)
			router := setupWaitlistTestRouter(svc)

			svc.On("Join", mock.Anything, "event1", "u1").Return(nil, tt.serviceErr)

			body, _ := json.Marshal(dto.JoinWaitlistRequest{UserID: "u1"})
			req, _ := http.NewRequest("POST", "/api/v1/events/event1/waitlist", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.ErrorResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestWaitlistHandler_Leave_NotInList(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	svc.On("Leave", mock.Anything, "event1", "ghost").Return(domain.ErrNotInList)

	req, _ := http.NewRequest("DELETE", "/api/v1/events/event1/waitlist/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_IN_LIST", resp.Code)
}

func TestWaitlistHandler_Accept_IllegalTransition(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	svc.On("Accept", mock.Anything, "event1", "u1").Return(nil, domain.ErrIllegalTransition)

	req, _ := http.NewRequest("POST", "/api/v1/events/event1/waitlist/u1/accept", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ILLEGAL_TRANSITION", resp.Code)
}

func TestWaitlistHandler_GetStatus(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	svc.On("GetEntrantStatus", mock.Anything, "event1", "u9").Return(&dto.EntrantStatusResponse{
		EventID: "event1",
		UserID:  "u9",
		InList:  false,
		State:   "NOT_IN",
	}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/events/event1/waitlist/u9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.EntrantStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.InList)
	assert.Equal(t, "NOT_IN", resp.State)
}

func TestWaitlistHandler_CreateEvent(t *testing.T) {
	svc := new(MockWaitlistService)
	router := setupWaitlistTestRouter(svc)

	svc.On("CreateEvent", mock.Anything, mock.AnythingOfType("*dto.CreateEventRequest")).
		Return(&dto.EventResponse{ID: "event1", Title: "Launch Party"}, nil)

	body, _ := json.Marshal(dto.CreateEventRequest{
		OrganizerID: "org1",
		Title:       "Launch Party",
		Capacity:    100,
	})
	req, _ := http.NewRequest("POST", "/api/v1/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.EventResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "event1", resp.ID)
}
