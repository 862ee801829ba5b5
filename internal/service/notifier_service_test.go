package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evreg/lottery-service/internal/domain"
)

// MockEntrantSource is a mock implementation of repository.EntrantSource
type MockEntrantSource struct {
	GetEntrantIDsFunc func(ctx context.Context, eventID string, group domain.Group) ([]string, error)
	FilterOptedInFunc func(ctx context.Context, eventID string, candidateIDs []string) ([]string, error)
}

func (m *MockEntrantSource) GetEntrantIDs(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
	if m.GetEntrantIDsFunc != nil {
		return m.GetEntrantIDsFunc(ctx, eventID, group)
	}
	return []string{}, nil
}

func (m *MockEntrantSource) FilterOptedIn(ctx context.Context, eventID string, candidateIDs []string) ([]string, error) {
	if m.FilterOptedInFunc != nil {
		return m.FilterOptedInFunc(ctx, eventID, candidateIDs)
	}
	return candidateIDs, nil
}

// MockNotificationStore is a mock implementation of repository.NotificationStore
type MockNotificationStore struct {
	AddFunc        func(ctx context.Context, n *domain.Notification) error
	GetForUserFunc func(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkReadFunc   func(ctx context.Context, userID, notificationID string) error

	mu    sync.Mutex
	added []*domain.Notification
}

func (m *MockNotificationStore) Add(ctx context.Context, n *domain.Notification) error {
	if m.AddFunc != nil {
		if err := m.AddFunc(ctx, n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.added = append(m.added, n)
	m.mu.Unlock()
	return nil
}

func (m *MockNotificationStore) Added() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Notification, len(m.added))
	copy(out, m.added)
	return out
}

func (m *MockNotificationStore) GetForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	if m.GetForUserFunc != nil {
		return m.GetForUserFunc(ctx, userID)
	}
	return []*domain.Notification{}, nil
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, notificationID)
	}
	return nil
}

// MockAuditStore is a mock implementation of repository.AuditStore
type MockAuditStore struct {
	RecordFunc     func(ctx context.Context, log *domain.NotificationLog) error
	GetAllLogsFunc func(ctx context.Context) ([]*domain.NotificationLog, error)

	mu       sync.Mutex
	recorded []*domain.NotificationLog
}

func (m *MockAuditStore) Record(ctx context.Context, log *domain.NotificationLog) error {
	if m.RecordFunc != nil {
		if err := m.RecordFunc(ctx, log); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.recorded = append(m.recorded, log)
	m.mu.Unlock()
	return nil
}

func (m *MockAuditStore) Recorded() []*domain.NotificationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.NotificationLog, len(m.recorded))
	copy(out, m.recorded)
	return out
}

func (m *MockAuditStore) GetAllLogs(ctx context.Context) ([]*domain.NotificationLog, error) {
	if m.GetAllLogsFunc != nil {
		return m.GetAllLogsFunc(ctx)
	}
	return []*domain.NotificationLog{}, nil
}

// MockUnreadCounter is a mock implementation of repository.UnreadCounter
type MockUnreadCounter struct {
	IncrFunc func(ctx context.Context, userID string) error
	DecrFunc func(ctx context.Context, userID string) error
	GetFunc  func(ctx context.Context, userID string) (int64, error)
}

func (m *MockUnreadCounter) Incr(ctx context.Context, userID string) error {
	if m.IncrFunc != nil {
		return m.IncrFunc(ctx, userID)
	}
	return nil
}

func (m *MockUnreadCounter) Decr(ctx context.Context, userID string) error {
	if m.DecrFunc != nil {
		return m.DecrFunc(ctx, userID)
	}
	return nil
}

func (m *MockUnreadCounter) Get(ctx context.Context, userID string) (int64, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return 0, nil
}

func newTestNotifier(entrants *MockEntrantSource, store *MockNotificationStore, audit *MockAuditStore) NotifierService {
	return NewNotifierService(entrants, store, audit, &MockUnreadCounter{}, NewNoOpDeliveryPublisher(), &NotifierConfig{
		FanOutConcurrency: 4,
		WriteTimeout:      time.Second,
	})
}

func TestNotifierService_NotifyGroup(t *testing.T) {
	errStore := errors.New("store down")

	tests := []struct {
		name          string
		group         domain.Group
		setupMocks    func(*MockEntrantSource, *MockNotificationStore, *MockAuditStore)
		wantErr       error
		wantDelivered int
		wantAuditRows int
		wantCategory  domain.Category
	}{
		{
			name:  "fan-out to opted-in subset",
			group: domain.GroupWaitlist,
			setupMocks: func(es *MockEntrantSource, ns *MockNotificationStore, as *MockAuditStore) {
				es.GetEntrantIDsFunc = func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
					return []string{"u1", "u2", "u3"}, nil
				}
				es.FilterOptedInFunc = func(ctx context.Context, eventID string, ids []string) ([]string, error) {
					return []string{"u1", "u3"}, nil
				}
			},
			wantDelivered: 2,
			wantAuditRows: 1,
			wantCategory:  domain.CategoryWaitlist,
		},
		{
			name:  "zero recipients still writes one audit row",
			group: domain.GroupSelected,
			setupMocks: func(es *MockEntrantSource, ns *MockNotificationStore, as *MockAuditStore) {
				es.GetEntrantIDsFunc = func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
					return []string{}, nil
				}
			},
			wantDelivered: 0,
			wantAuditRows: 1,
			wantCategory:  domain.CategorySelected,
		},
		{
			name:  "entrant source failure propagates",
			group: domain.GroupCancelled,
			setupMocks: func(es *MockEntrantSource, ns *MockNotificationStore, as *MockAuditStore) {
				es.GetEntrantIDsFunc = func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
					return nil, errStore
				}
			},
			wantErr:       errStore,
			wantAuditRows: 0,
		},
		{
			name:  "opt-in filter failure fails whole call",
			group: domain.GroupWaitlist,
			setupMocks: func(es *MockEntrantSource, ns *MockNotificationStore, as *MockAuditStore) {
				es.GetEntrantIDsFunc = func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
					return []string{"u1", "u2"}, nil
				}
				es.FilterOptedInFunc = func(ctx context.Context, eventID string, ids []string) ([]string, error) {
					return nil, errStore
				}
			},
			wantErr:       errStore,
			wantAuditRows: 0,
		},
		{
			name:    "invalid group rejected",
			group:   domain.Group("FRIENDS"),
			wantErr: domain.ErrInvalidGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entrants := &MockEntrantSource{}
			store := &MockNotificationStore{}
			audit := &MockAuditStore{}
			if tt.setupMocks != nil {
				tt.setupMocks(entrants, store, audit)
			}

			svc := newTestNotifier(entrants, store, audit)
			delivered, err := svc.NotifyGroup(context.Background(), "org1", "event1", "Update", "Hello", tt.group)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NotifyGroup() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("NotifyGroup() unexpected error = %v", err)
			}

			if len(delivered) != tt.wantDelivered {
				t.Errorf("NotifyGroup() delivered = %d, want %d", len(delivered), tt.wantDelivered)
			}

			logs := audit.Recorded()
			if len(logs) != tt.wantAuditRows {
				t.Fatalf("NotifyGroup() audit rows = %d, want %d", len(logs), tt.wantAuditRows)
			}
			if tt.wantAuditRows == 1 {
				if logs[0].Category != tt.wantCategory {
					t.Errorf("audit category = %s, want %s", logs[0].Category, tt.wantCategory)
				}
				if len(logs[0].RecipientIDs) != tt.wantDelivered {
					t.Errorf("audit recipients = %d, want %d", len(logs[0].RecipientIDs), tt.wantDelivered)
				}
			}
		})
	}
}

func TestNotifierService_PartialFailureKeepsWrites(t *testing.T) {
	errWrite := errors.New("write failed")

	entrants := &MockEntrantSource{
		GetEntrantIDsFunc: func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
			return []string{"u1", "u2", "u3"}, nil
		},
	}
	store := &MockNotificationStore{
		AddFunc: func(ctx context.Context, n *domain.Notification) error {
			if n.UserID == "u2" {
				return errWrite
			}
			return nil
		},
	}
	audit := &MockAuditStore{}

	svc := newTestNotifier(entrants, store, audit)
	delivered, err := svc.NotifyGroup(context.Background(), "org1", "event1", "Update", "Hello", domain.GroupWaitlist)

	var fanOutErr *domain.FanOutError
	if !errors.As(err, &fanOutErr) {
		t.Fatalf("expected FanOutError, got %v", err)
	}
	if len(fanOutErr.Failed) != 1 || fanOutErr.Failed[0] != "u2" {
		t.Errorf("Failed = %v, want [u2]", fanOutErr.Failed)
	}
	if len(delivered) != 2 {
		t.Errorf("delivered = %v, want 2 entries", delivered)
	}
	// Successful writes are not rolled back
	if got := len(store.Added()); got != 2 {
		t.Errorf("written notifications = %d, want 2", got)
	}
	// The audit row still exists and lists only confirmed writes
	logs := audit.Recorded()
	if len(logs) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(logs))
	}
	if len(logs[0].RecipientIDs) != 2 {
		t.Errorf("audit recipients = %v, want 2 entries", logs[0].RecipientIDs)
	}
}

func TestNotifierService_AuditAfterAllWritesSettle(t *testing.T) {
	var inFlight, writes int32

	entrants := &MockEntrantSource{
		GetEntrantIDsFunc: func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
			return []string{"u1", "u2", "u3", "u4", "u5"}, nil
		},
	}
	store := &MockNotificationStore{
		AddFunc: func(ctx context.Context, n *domain.Notification) error {
			atomic.AddInt32(&inFlight, 1)
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			atomic.AddInt32(&writes, 1)
			return nil
		},
	}
	audit := &MockAuditStore{
		RecordFunc: func(ctx context.Context, log *domain.NotificationLog) error {
			if n := atomic.LoadInt32(&inFlight); n != 0 {
				t.Errorf("audit written with %d writes still in flight", n)
			}
			if n := atomic.LoadInt32(&writes); n != 5 {
				t.Errorf("audit written after %d settled writes, want 5", n)
			}
			return nil
		},
	}

	svc := newTestNotifier(entrants, store, audit)
	delivered, err := svc.NotifyGroup(context.Background(), "org1", "event1", "Update", "Hello", domain.GroupWaitlist)
	if err != nil {
		t.Fatalf("unexpected error = %v", err)
	}
	if len(delivered) != 5 {
		t.Errorf("delivered = %d, want 5", len(delivered))
	}
}

func TestNotifierService_AuditWriteFailure(t *testing.T) {
	errAudit := errors.New("audit store down")

	entrants := &MockEntrantSource{
		GetEntrantIDsFunc: func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
			return []string{"u1"}, nil
		},
	}
	store := &MockNotificationStore{}
	audit := &MockAuditStore{
		RecordFunc: func(ctx context.Context, log *domain.NotificationLog) error {
			return errAudit
		},
	}

	svc := newTestNotifier(entrants, store, audit)
	delivered, err := svc.NotifyGroup(context.Background(), "org1", "event1", "Update", "Hello", domain.GroupWaitlist)

	var auditErr *domain.AuditWriteError
	if !errors.As(err, &auditErr) {
		t.Fatalf("expected AuditWriteError, got %v", err)
	}
	if !errors.Is(err, errAudit) {
		t.Errorf("AuditWriteError should wrap the cause")
	}
	// The notification was delivered and stands
	if len(delivered) != 1 || len(store.Added()) != 1 {
		t.Errorf("delivered = %v, written = %d, want 1 and 1", delivered, len(store.Added()))
	}
}

func TestNotifierService_NotifyExplicitList(t *testing.T) {
	entrants := &MockEntrantSource{
		FilterOptedInFunc: func(ctx context.Context, eventID string, ids []string) ([]string, error) {
			// u2 opted out
			out := make([]string, 0, len(ids))
			for _, id := range ids {
				if id != "u2" {
					out = append(out, id)
				}
			}
			return out, nil
		},
	}
	store := &MockNotificationStore{}
	audit := &MockAuditStore{}

	svc := newTestNotifier(entrants, store, audit)
	delivered, err := svc.NotifyExplicitList(context.Background(), "org1", "event1", "Chosen", "You are in", []string{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("unexpected error = %v", err)
	}

	if len(delivered) > 3 {
		t.Errorf("delivered %d ids, more than candidates", len(delivered))
	}
	if len(delivered) != 2 {
		t.Errorf("delivered = %v, want [u1 u3]", delivered)
	}
	for _, n := range store.Added() {
		if n.Category != domain.CategoryChosenSignup {
			t.Errorf("category = %s, want %s", n.Category, domain.CategoryChosenSignup)
		}
	}
	if len(audit.Recorded()) != 1 {
		t.Errorf("audit rows = %d, want 1", len(audit.Recorded()))
	}
}

func TestNotifierService_NotifyWinLose(t *testing.T) {
	entrants := &MockEntrantSource{}
	store := &MockNotificationStore{}
	audit := &MockAuditStore{}

	svc := newTestNotifier(entrants, store, audit)

	if err := svc.NotifyWin(context.Background(), "org1", "event1", "u1", "You won", "Congrats"); err != nil {
		t.Fatalf("NotifyWin() error = %v", err)
	}
	if err := svc.NotifyLose(context.Background(), "org1", "event1", "u2", "Result", "Sorry"); err != nil {
		t.Fatalf("NotifyLose() error = %v", err)
	}

	added := store.Added()
	if len(added) != 2 {
		t.Fatalf("written notifications = %d, want 2", len(added))
	}
	// Each single-recipient result carries its own audit row
	logs := audit.Recorded()
	if len(logs) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(logs))
	}

	categories := map[domain.Category]bool{}
	for _, l := range logs {
		categories[l.Category] = true
	}
	if !categories[domain.CategoryLotteryWin] || !categories[domain.CategoryLotteryLose] {
		t.Errorf("audit categories = %v, want win and lose", categories)
	}

	if err := svc.NotifyWin(context.Background(), "org1", "event1", "", "You won", "x"); !errors.Is(err, domain.ErrInvalidUserID) {
		t.Errorf("NotifyWin() with empty user = %v, want ErrInvalidUserID", err)
	}
}

func TestNotifierService_TruncatesAuditPreview(t *testing.T) {
	entrants := &MockEntrantSource{
		GetEntrantIDsFunc: func(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
			return []string{"u1"}, nil
		},
	}
	store := &MockNotificationStore{}
	audit := &MockAuditStore{}

	body := ""
	for i := 0; i < 120; i++ {
		body += "x"
	}

	svc := newTestNotifier(entrants, store, audit)
	if _, err := svc.NotifyGroup(context.Background(), "org1", "event1", "Update", body, domain.GroupWaitlist); err != nil {
		t.Fatalf("unexpected error = %v", err)
	}

	logs := audit.Recorded()
	if len(logs) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(logs))
	}
	if got := len([]rune(logs[0].PayloadPreview)); got != 100 {
		t.Errorf("preview length = %d, want 100", got)
	}
	// The notification itself keeps the full body
	if store.Added()[0].Body != body {
		t.Errorf("notification body was truncated")
	}
}
