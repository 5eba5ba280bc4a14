// Package store holds the in-memory room and booking state of the front desk.
// All mutations go through Allocate, Release and UpdateBookingFields.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"frontdesk/internal/billing"
	"frontdesk/internal/models"

	"github.com/rs/zerolog"
)

type Store struct {
	mu       sync.RWMutex
	rooms    []models.Room
	bookings []models.Booking
	nextID   int64
	now      func() time.Time
	logger   *zerolog.Logger
}

type Option func(*Store)

// WithClock overrides the clock used for createdAt and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(rooms []models.Room, logger *zerolog.Logger, opts ...Option) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Store{
		rooms:  append([]models.Room(nil), rooms...),
		nextID: 1,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRooms returns a snapshot of the registry in room order.
func (s *Store) ListRooms(ctx context.Context) []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Room(nil), s.rooms...)
}

// ListBookings returns a snapshot of bookings in creation order.
func (s *Store) ListBookings(ctx context.Context) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Booking(nil), s.bookings...)
}

func (s *Store) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Booking{}, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
}

// Allocate ties a new booking to a free room. The availability check, the
// room flip and the booking append happen under one lock.
// Nights are not checked: a check-out on or before check-in yields a
// non-positive stay and total.
func (s *Store) Allocate(ctx context.Context, req models.AllocateRequest) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.findFreeRoom(req)
	if pos < 0 {
		if req.RoomNumber == 0 && req.RoomType != "" {
			return models.Booking{}, fmt.Errorf("%w: no %s room left", ErrRoomUnavailable, req.RoomType)
		}
		return models.Booking{}, fmt.Errorf("%w: room %d", ErrRoomUnavailable, req.RoomNumber)
	}
	room := s.rooms[pos]

	now := s.now()
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	booking := models.Booking{
		ID:          s.nextID,
		RoomNumber:  room.Number,
		RoomType:    room.Type,
		RoomRate:    room.Rate,
		Name:        orDefault(req.Name, models.UnknownGuest),
		Phone:       orDefault(req.Phone, models.NotAvailable),
		Aadhaar:     orDefault(req.Aadhaar, models.NotAvailable),
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Status:      orDefault(req.Status, models.StatusBooked),
		Rating:      req.Rating,
		Document:    req.Document,
		Discount:    0,
		PaymentMode: models.DefaultPayment,
		CreatedAt:   now,
	}
	if booking.CheckIn.IsZero() {
		booking.CheckIn = today
	}
	if booking.CheckOut.IsZero() {
		booking.CheckOut = today
	}

	booking.Nights = billing.Nights(booking.CheckIn, booking.CheckOut)
	booking.TotalAmount = int64(booking.Nights) * booking.RoomRate
	booking.Tax = billing.GST(booking.TotalAmount)

	s.rooms[pos].Booked = true
	s.bookings = append(s.bookings, booking)
	s.nextID++

	s.logger.Debug().
		Int64("booking_id", booking.ID).
		Int("room_number", booking.RoomNumber).
		Int("nights", booking.Nights).
		Int64("total_amount", booking.TotalAmount).
		Msg("room allocated")

	return booking, nil
}

func (s *Store) findFreeRoom(req models.AllocateRequest) int {
	for i, r := range s.rooms {
		if r.Booked {
			continue
		}
		if req.RoomNumber != 0 {
			if r.Number == req.RoomNumber {
				return i
			}
			continue
		}
		if req.RoomType != "" && r.Type == req.RoomType {
			return i
		}
	}
	return -1
}

// Release frees the room and drops every booking on it. Unknown rooms and
// rooms without bookings are a silent no-op; the result tells them apart.
func (s *Store) Release(ctx context.Context, roomNumber int) models.ReleaseResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := models.ReleaseResult{RoomNumber: roomNumber}
	for i := range s.rooms {
		if s.rooms[i].Number == roomNumber {
			s.rooms[i].Booked = false
			result.RoomFound = true
		}
	}

	kept := s.bookings[:0]
	for _, b := range s.bookings {
		if b.RoomNumber == roomNumber {
			result.Removed = append(result.Removed, b)
			continue
		}
		kept = append(kept, b)
	}
	// clear the tail so removed documents can be collected
	for i := len(kept); i < len(s.bookings); i++ {
		s.bookings[i] = models.Booking{}
	}
	s.bookings = kept

	s.logger.Debug().
		Int("room_number", roomNumber).
		Bool("room_found", result.RoomFound).
		Int("removed", len(result.Removed)).
		Msg("room released")

	return result
}

// UpdateBookingFields applies billing-view edits in place. Nights, rate, total
// and tax are never re-derived and the discount is not checked against the total.
func (s *Store) UpdateBookingFields(ctx context.Context, id int64, update models.BookingUpdate) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		if s.bookings[i].ID != id {
			continue
		}
		b := &s.bookings[i]
		if update.Discount != nil {
			b.Discount = *update.Discount
		}
		if update.PaymentMode != nil {
			b.PaymentMode = *update.PaymentMode
		}
		if update.Status != nil {
			b.Status = *update.Status
		}
		if update.Rating != nil {
			b.Rating = *update.Rating
		}
		return *b, nil
	}

	return models.Booking{}, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
