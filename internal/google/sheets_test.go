package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"frontdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const testSpreadsheet = "bookings_tid"

func setupMockServer(t *testing.T, mux *http.ServeMux) *SheetsService {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	return newWithService(srv, testSpreadsheet, "Bookings")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testBooking(id int64) *models.Booking {
	return &models.Booking{
		ID:          id,
		RoomNumber:  2,
		RoomType:    models.RoomStandard,
		RoomRate:    2500,
		Nights:      3,
		TotalAmount: 7500,
		Tax:         900,
		Discount:    500,
		PaymentMode: models.PaymentUPI,
		Name:        "Asha",
		Phone:       "9876543210",
		Aadhaar:     "123412341234",
		CheckIn:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusBooked,
		CreatedAt:   time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestBookingRowValues(t *testing.T) {
	row := bookingRowValues(testBooking(7))

	require.Len(t, row, len(bookingHeaders))
	assert.Equal(t, int64(7), row[0])
	assert.Equal(t, "Asha", row[1])
	assert.Equal(t, "2024-01-01", row[5])
	assert.Equal(t, "2024-01-04", row[6])
	assert.Equal(t, int64(7000), row[12])
	assert.Equal(t, "UPI", row[13])
	assert.NotContains(t, row, "123412341234")
}

func TestRowFromRange(t *testing.T) {
	row, ok := rowFromRange("Bookings!A10:P10")
	assert.True(t, ok)
	assert.Equal(t, 10, row)

	_, ok = rowFromRange("garbage")
	assert.False(t, ok)
}

func TestWarmUpCacheAndFind(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"1"}, {}, {"3"}}})
	})
	s := setupMockServer(t, mux)

	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow(3)
	assert.True(t, ok)
	assert.Equal(t, 4, row)

	row, err := s.FindBookingRow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, row)

	_, err = s.FindBookingRow(context.Background(), 9)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestUpsertBooking_AppendsWhenMissing(t *testing.T) {
	appended := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		appended = true
		writeJSON(w, &sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A10:P10"},
		})
	})
	s := setupMockServer(t, mux)

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking(5)))
	assert.True(t, appended)

	row, ok := s.getCachedRow(5)
	assert.True(t, ok)
	assert.Equal(t, 10, row)
}

func TestUpsertBooking_UpdatesCachedRow(t *testing.T) {
	var got sheets.ValueRange
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A4:P4", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A4:P4"})
	})
	s := setupMockServer(t, mux)
	s.setCachedRow(5, 4)

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking(5)))
	require.Len(t, got.Values, 1)
	assert.Equal(t, "Asha", got.Values[0][1])
}

func TestUpsertBooking_Nil(t *testing.T) {
	s := newWithService(nil, testSpreadsheet, "Bookings")
	assert.Error(t, s.UpsertBooking(context.Background(), nil))
}

func TestDeleteBookingRow(t *testing.T) {
	cleared := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A3:P3:clear", func(w http.ResponseWriter, r *http.Request) {
		cleared = true
		writeJSON(w, &sheets.ClearValuesResponse{ClearedRange: "Bookings!A3:P3"})
	})
	s := setupMockServer(t, mux)
	s.setCachedRow(8, 3)

	require.NoError(t, s.DeleteBookingRow(context.Background(), 8))
	assert.True(t, cleared)

	_, ok := s.getCachedRow(8)
	assert.False(t, ok)
}

func TestDeleteBookingRow_MissingIsNoop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	s := setupMockServer(t, mux)

	assert.NoError(t, s.DeleteBookingRow(context.Background(), 8))
}

func TestReplaceBookings(t *testing.T) {
	var written sheets.ValueRange
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings:clear", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &sheets.ClearValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A1:P3", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&written))
		writeJSON(w, &sheets.UpdateValuesResponse{})
	})
	s := setupMockServer(t, mux)

	bookings := []models.Booking{*testBooking(1), *testBooking(4)}
	require.NoError(t, s.ReplaceBookings(context.Background(), bookings))

	require.Len(t, written.Values, 3)
	assert.Equal(t, "ID", written.Values[0][0])

	row, ok := s.getCachedRow(4)
	assert.True(t, ok)
	assert.Equal(t, 3, row)
}

func TestTestConnection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/"+testSpreadsheet+"/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &sheets.ValueRange{})
	})
	s := setupMockServer(t, mux)
	assert.NoError(t, s.TestConnection(context.Background()))

	broken := setupMockServer(t, http.NewServeMux())
	assert.Error(t, broken.TestConnection(context.Background()))
}

func TestServiceAccountEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"desk@project.iam.gserviceaccount.com"}`), 0o600))

	email, err := ServiceAccountEmail(path)
	require.NoError(t, err)
	assert.Equal(t, "desk@project.iam.gserviceaccount.com", email)

	_, err = ServiceAccountEmail(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewSheetsService_BadCredentials(t *testing.T) {
	_, err := NewSheetsService(context.Background(), filepath.Join(t.TempDir(), "missing.json"), testSpreadsheet, "Bookings")
	assert.Error(t, err)
}
