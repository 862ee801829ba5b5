package service

import (
	"context"
	"errors"
	"testing"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/internal/dto"
)

func TestWaitlistService_Join(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		load    func(ctx context.Context, eventID string) (*domain.WaitingList, error)
		wantErr error
	}{
		{
			name:   "join empty list",
			userID: "u1",
			load: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
				return domain.NewWaitingList(domain.UnlimitedCapacity), nil
			},
		},
		{
			name:   "duplicate join rejected",
			userID: "u1",
			load: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
				return enteredList("u1"), nil
			},
			wantErr: domain.ErrAlreadyInList,
		},
		{
			name:   "full list rejected",
			userID: "u2",
			load: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
				wl := domain.NewWaitingList(1)
				_ = wl.AddEntrant("u1")
				return wl, nil
			},
			wantErr: domain.ErrCapacityExceeded,
		},
		{
			name:   "unknown event",
			userID: "u1",
			load: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
				return nil, domain.ErrInvalidEventID
			},
			wantErr: domain.ErrInvalidEventID,
		},
		{
			name:    "empty user id",
			userID:  "",
			wantErr: domain.ErrInvalidUserID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWaitlistService(&MockEventRepository{}, &MockWaitlistRepository{LoadFunc: tt.load})

			resp, err := svc.Join(context.Background(), "event1", tt.userID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Join() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Join() unexpected error = %v", err)
			}
			if resp.State != domain.StateEntered.String() {
				t.Errorf("Join() state = %s, want ENTERED", resp.State)
			}
		})
	}
}

func TestWaitlistService_Leave(t *testing.T) {
	waitlist := &MockWaitlistRepository{
		LoadFunc: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
			return enteredList("u1"), nil
		},
	}
	svc := NewWaitlistService(&MockEventRepository{}, waitlist)

	if err := svc.Leave(context.Background(), "event1", "u1"); err != nil {
		t.Errorf("Leave() unexpected error = %v", err)
	}
	if err := svc.Leave(context.Background(), "event1", "ghost"); !errors.Is(err, domain.ErrNotInList) {
		t.Errorf("Leave() error = %v, want ErrNotInList", err)
	}
}

func TestWaitlistService_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.EntrantState
		op      func(svc WaitlistService) (*dto.EntrantStatusResponse, error)
		want    domain.EntrantState
		wantErr error
	}{
		{
			name: "accept after selection",
			from: domain.StateSelected,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Accept(context.Background(), "event1", "u1")
			},
			want: domain.StateAccepted,
		},
		{
			name: "decline after selection",
			from: domain.StateSelected,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Decline(context.Background(), "event1", "u1")
			},
			want: domain.StateDeclined,
		},
		{
			name: "cancel after accepting",
			from: domain.StateAccepted,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Cancel(context.Background(), "event1", "u1")
			},
			want: domain.StateCanceled,
		},
		{
			name: "rejoin after cancel",
			from: domain.StateCanceled,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Rejoin(context.Background(), "event1", "u1")
			},
			want: domain.StateEntered,
		},
		{
			name: "accept without selection is illegal",
			from: domain.StateEntered,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Accept(context.Background(), "event1", "u1")
			},
			wantErr: domain.ErrIllegalTransition,
		},
		{
			name: "cancel from declined is illegal",
			from: domain.StateDeclined,
			op: func(svc WaitlistService) (*dto.EntrantStatusResponse, error) {
				return svc.Cancel(context.Background(), "event1", "u1")
			},
			wantErr: domain.ErrIllegalTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waitlist := &MockWaitlistRepository{
				LoadFunc: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
					return domain.RestoreWaitingList(domain.UnlimitedCapacity, []domain.WaitingListEntry{
						{UserID: "u1", State: tt.from},
					}), nil
				},
			}
			svc := NewWaitlistService(&MockEventRepository{}, waitlist)

			resp, err := tt.op(svc)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("transition error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition unexpected error = %v", err)
			}
			if resp.State != tt.want.String() {
				t.Errorf("state = %s, want %s", resp.State, tt.want)
			}
		})
	}
}

func TestWaitlistService_CreateEvent(t *testing.T) {
	var created *domain.Event
	events := &MockEventRepository{
		CreateFunc: func(ctx context.Context, event *domain.Event) error {
			created = event
			return nil
		},
	}
	svc := NewWaitlistService(events, &MockWaitlistRepository{})

	resp, err := svc.CreateEvent(context.Background(), &dto.CreateEventRequest{
		OrganizerID: "org1",
		Title:       "Swim Lessons",
		Capacity:    20,
	})
	if err != nil {
		t.Fatalf("CreateEvent() unexpected error = %v", err)
	}
	if resp.ID == "" {
		t.Error("CreateEvent() generated empty id")
	}
	// Unset waiting list capacity means unlimited
	if created.WaitingListCapacity != domain.UnlimitedCapacity {
		t.Errorf("waiting list capacity = %d, want unlimited", created.WaitingListCapacity)
	}

	if _, err := svc.CreateEvent(context.Background(), &dto.CreateEventRequest{OrganizerID: "org1"}); !errors.Is(err, domain.ErrEmptyTitle) {
		t.Errorf("CreateEvent() without title = %v, want ErrEmptyTitle", err)
	}
}

func TestWaitlistService_GetEntrantStatus(t *testing.T) {
	waitlist := &MockWaitlistRepository{
		LoadFunc: func(ctx context.Context, eventID string) (*domain.WaitingList, error) {
			return enteredList("u1"), nil
		},
	}
	svc := NewWaitlistService(&MockEventRepository{}, waitlist)

	status, err := svc.GetEntrantStatus(context.Background(), "event1", "u1")
	if err != nil {
		t.Fatalf("GetEntrantStatus() unexpected error = %v", err)
	}
	if !status.InList || status.State != domain.StateEntered.String() {
		t.Errorf("status = %+v, want in list and ENTERED", status)
	}

	absent, err := svc.GetEntrantStatus(context.Background(), "event1", "ghost")
	if err != nil {
		t.Fatalf("GetEntrantStatus() unexpected error = %v", err)
	}
	if absent.InList || absent.State != domain.StateNotIn.String() {
		t.Errorf("status = %+v, want absent and NOT_IN", absent)
	}
}
