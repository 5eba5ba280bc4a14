package service

import (
	"context"
	"errors"

	"frontdesk/internal/billing"
	"frontdesk/internal/domain"
	"frontdesk/internal/events"
	"frontdesk/internal/metrics"
	"frontdesk/internal/models"
	"frontdesk/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = models.TaskUpsert
	TaskDelete = models.TaskDelete
)

type BookingService struct {
	store        domain.RoomStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	hotel        billing.Hotel
	validate     *validator.Validate
	logger       *zerolog.Logger
}

// NewBookingService wires the facade. eventBus and sheetsWorker may be nil.
func NewBookingService(
	roomStore domain.RoomStore,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	hotel billing.Hotel,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:        roomStore,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		hotel:        hotel,
		validate:     newValidator(),
		logger:       logger,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest) (models.Booking, error) {
	checkIn, checkOut, err := req.Validate(s.validate)
	if err != nil {
		metrics.IncAllocationFailure("validation")
		return models.Booking{}, err
	}

	booking, err := s.store.Allocate(ctx, req.toAllocate(checkIn, checkOut))
	if err != nil {
		if errors.Is(err, store.ErrRoomUnavailable) {
			metrics.IncAllocationFailure("unavailable")
			s.logger.Warn().Err(err).Int("room_number", req.RoomNumber).Str("room_type", string(req.RoomType)).Msg("room unavailable")
		}
		return models.Booking{}, err
	}

	metrics.IncAllocated(string(booking.RoomType))
	s.refreshOccupancy(ctx)

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int("room_number", booking.RoomNumber).
		Str("guest", booking.Name).
		Int64("total_amount", booking.TotalAmount).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, events.NewBookingPayload(booking))
	s.enqueueSync(ctx, TaskUpsert, booking)

	return booking, nil
}

// ReleaseRoom frees a room. Releasing an unknown or free room is not an error
// but is logged.
func (s *BookingService) ReleaseRoom(ctx context.Context, roomNumber int) models.ReleaseResult {
	result := s.store.Release(ctx, roomNumber)

	if len(result.Removed) == 0 {
		s.logger.Warn().
			Int("room_number", roomNumber).
			Bool("room_found", result.RoomFound).
			Msg("release matched no booking")
		return result
	}

	metrics.IncReleased()
	s.refreshOccupancy(ctx)

	payload := events.RoomReleasedPayload{RoomNumber: roomNumber, BookingIDs: []int64{}}
	for _, b := range result.Removed {
		payload.BookingIDs = append(payload.BookingIDs, b.ID)
		payload.Guests = append(payload.Guests, b.Name)
		s.enqueueSync(ctx, TaskDelete, b)
	}
	s.publishEvent(events.EventRoomReleased, payload)

	s.logger.Info().Int("room_number", roomNumber).Int("removed", len(result.Removed)).Msg("room released")
	return result
}

// UpdateBilling applies billing-view edits. Derived amounts stay as computed
// at allocation.
func (s *BookingService) UpdateBilling(ctx context.Context, id int64, update models.BookingUpdate) (models.Booking, error) {
	fields := make(map[string]string)
	if update.PaymentMode != nil && !update.PaymentMode.Valid() {
		fields["payment_mode"] = "Payment mode must be Cash, Card, UPI or Online"
	}
	if update.Rating != nil && (*update.Rating < 0 || *update.Rating > 5) {
		fields["rating"] = messageFor("rating", "")
	}
	if update.Status != nil && !models.ValidStatus(*update.Status) {
		fields["status"] = messageFor("status", "")
	}
	if len(fields) > 0 {
		return models.Booking{}, &ValidationError{Fields: fields}
	}

	booking, err := s.store.UpdateBookingFields(ctx, id, update)
	if err != nil {
		return models.Booking{}, err
	}

	s.logger.Info().Int64("booking_id", id).Int64("discount", booking.Discount).Str("payment_mode", string(booking.PaymentMode)).Msg("billing updated")

	s.publishEvent(events.EventBookingUpdated, events.NewBookingPayload(booking))
	s.enqueueSync(ctx, TaskUpsert, booking)

	return booking, nil
}

func (s *BookingService) Invoice(ctx context.Context, id int64) (billing.Invoice, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return billing.Invoice{}, err
	}
	return billing.NewInvoice(booking, s.hotel), nil
}

func (s *BookingService) ListRooms(ctx context.Context) []models.Room {
	return s.store.ListRooms(ctx)
}

// AvailableRooms lists free rooms, optionally of one type.
func (s *BookingService) AvailableRooms(ctx context.Context, roomType models.RoomType) []models.Room {
	var out []models.Room
	for _, r := range s.store.ListRooms(ctx) {
		if r.Booked {
			continue
		}
		if roomType != "" && r.Type != roomType {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *BookingService) ListBookings(ctx context.Context) []models.Booking {
	return s.store.ListBookings(ctx)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) refreshOccupancy(ctx context.Context) {
	occupied := 0
	for _, r := range s.store.ListRooms(ctx) {
		if r.Booked {
			occupied++
		}
	}
	metrics.SetOccupied(occupied)
}

func (s *BookingService) publishEvent(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, booking models.Booking) {
	if s.sheetsWorker == nil {
		return
	}
	b := booking
	b.Document = nil
	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, &b); err != nil {
		s.logger.Error().Err(err).Str("task", taskType).Int64("booking_id", booking.ID).Msg("failed to enqueue sheets sync")
	}
}
