package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
		IncAllocated("Suite")
		IncAllocationFailure("unavailable")
		IncReleased()
		SetOccupied(4)
		IncSyncTask("completed")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	Register()
	IncAllocated("Deluxe")
	SetOccupied(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `frontdesk_bookings_allocated_total{room_type="Deluxe"}`)
	assert.Contains(t, body, "frontdesk_rooms_occupied 2")
}
