package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"frontdesk/internal/models"

	"github.com/google/uuid"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventRoomReleased   = "room_released"
)

// AllEventTypes lists every event the front desk emits.
var AllEventTypes = []string{EventBookingCreated, EventBookingUpdated, EventRoomReleased}

// BookingEventPayload describes the booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64              `json:"booking_id"`
	RoomNumber  int                `json:"room_number"`
	RoomType    models.RoomType    `json:"room_type"`
	GuestName   string             `json:"guest_name"`
	CheckIn     time.Time          `json:"check_in"`
	CheckOut    time.Time          `json:"check_out"`
	Nights      int                `json:"nights"`
	TotalAmount int64              `json:"total_amount"`
	Discount    int64              `json:"discount"`
	PaymentMode models.PaymentMode `json:"payment_mode"`
	Status      string             `json:"status"`
}

// NewBookingPayload snapshots the event-relevant fields of b.
func NewBookingPayload(b models.Booking) BookingEventPayload {
	return BookingEventPayload{
		BookingID:   b.ID,
		RoomNumber:  b.RoomNumber,
		RoomType:    b.RoomType,
		GuestName:   b.Name,
		CheckIn:     b.CheckIn,
		CheckOut:    b.CheckOut,
		Nights:      b.Nights,
		TotalAmount: b.TotalAmount,
		Discount:    b.Discount,
		PaymentMode: b.PaymentMode,
		Status:      b.Status,
	}
}

// RoomReleasedPayload is emitted once per release that touched a room.
type RoomReleasedPayload struct {
	RoomNumber int      `json:"room_number"`
	BookingIDs []int64  `json:"booking_ids"`
	Guests     []string `json:"guests,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every handler of the event type in subscription order.
// Handler errors do not stop delivery; they are joined and returned.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
