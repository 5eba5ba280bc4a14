package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(subject string, data []byte) error {
	return m.Called(subject, data).Error(0)
}

func TestNATSBridge_Forward(t *testing.T) {
	pub := new(mockPublisher)
	bridge := NewNATSBridge(pub, "frontdesk", nil)
	bus := NewEventBus()
	bridge.Attach(bus, AllEventTypes...)

	pub.On("Publish", "frontdesk.room_released", []byte(`{"room_number":3,"booking_ids":[1]}`)).Return(nil).Once()

	err := bus.PublishJSON(EventRoomReleased, RoomReleasedPayload{RoomNumber: 3, BookingIDs: []int64{1}})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestNATSBridge_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	bridge := NewNATSBridge(pub, "frontdesk", nil)
	bus := NewEventBus()
	bridge.Attach(bus, EventBookingCreated)

	pub.On("Publish", "frontdesk.booking_created", mock.Anything).Return(errors.New("nats: connection closed")).Once()

	err := bus.PublishJSON(EventBookingCreated, map[string]int{"booking_id": 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "frontdesk.booking_created")
}

func TestNATSBridge_Subject(t *testing.T) {
	assert.Equal(t, "hotel.booking_updated", NewNATSBridge(nil, "hotel", nil).Subject(EventBookingUpdated))
	assert.Equal(t, "booking_updated", NewNATSBridge(nil, "", nil).Subject(EventBookingUpdated))
}

func TestNATSBridge_IgnoresUnattachedEvents(t *testing.T) {
	pub := new(mockPublisher)
	bus := NewEventBus()
	NewNATSBridge(pub, "frontdesk", nil).Attach(bus, EventBookingCreated)

	require.NoError(t, bus.PublishJSON(EventBookingUpdated, map[string]int{"booking_id": 1}))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
