package domain

import (
	"context"
	"time"

	"frontdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RoomStore is the front-desk state container. List methods return snapshots.
type RoomStore interface {
	ListRooms(ctx context.Context) []models.Room
	ListBookings(ctx context.Context) []models.Booking
	GetBooking(ctx context.Context, id int64) (models.Booking, error)
	Allocate(ctx context.Context, req models.AllocateRequest) (models.Booking, error)
	Release(ctx context.Context, roomNumber int) models.ReleaseResult
	UpdateBookingFields(ctx context.Context, id int64, update models.BookingUpdate) (models.Booking, error)
}

type DraftRepository interface {
	GetDraft(ctx context.Context, deskID string) (*models.Draft, error)
	SaveDraft(ctx context.Context, draft *models.Draft) error
	ClearDraft(ctx context.Context, deskID string) error
	CheckRateLimit(ctx context.Context, deskID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
