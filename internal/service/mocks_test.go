package service

import (
	"context"
	"io"
	"testing"
	"time"

	"frontdesk/internal/billing"
	"frontdesk/internal/models"
	"frontdesk/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error {
	return m.Called(ctx, taskType, bookingID, booking).Error(0)
}

type mockDraftRepository struct {
	mock.Mock
}

func (m *mockDraftRepository) GetDraft(ctx context.Context, deskID string) (*models.Draft, error) {
	args := m.Called(ctx, deskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draft), args.Error(1)
}

func (m *mockDraftRepository) SaveDraft(ctx context.Context, draft *models.Draft) error {
	return m.Called(ctx, draft).Error(0)
}

func (m *mockDraftRepository) ClearDraft(ctx context.Context, deskID string) error {
	return m.Called(ctx, deskID).Error(0)
}

func (m *mockDraftRepository) CheckRateLimit(ctx context.Context, deskID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, deskID, limit, window)
	return args.Bool(0), args.Error(1)
}

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newTestStore() *store.Store {
	rooms := store.InitializeRooms(15, store.Boundaries{Standard: 5, Deluxe: 5}, nil)
	return store.New(rooms, nil, store.WithClock(func() time.Time { return testNow }))
}

func newTestBookingService(t *testing.T, pub *mockEventPublisher, worker *mockSyncWorker) (*BookingService, *store.Store) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	st := newTestStore()
	svc := NewBookingService(st, pub, worker, billing.Hotel{Name: "Hotel Paradise"}, &logger)
	if pub == nil {
		svc.eventBus = nil
	}
	if worker == nil {
		svc.sheetsWorker = nil
	}
	return svc, st
}

func validRequest(room int) BookingRequest {
	return BookingRequest{
		Name:       "Priya Sharma",
		Phone:      "9876543210",
		Aadhaar:    "123456789012",
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-04",
		RoomNumber: room,
	}
}
