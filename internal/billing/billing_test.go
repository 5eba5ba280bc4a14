package billing

import (
	"testing"
	"time"

	"frontdesk/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNights(t *testing.T) {
	tests := []struct {
		name     string
		in, out  time.Time
		expected int
	}{
		{"three nights", date("2024-01-01"), date("2024-01-04"), 3},
		{"same day", date("2024-01-01"), date("2024-01-01"), 0},
		{"reversed", date("2024-01-04"), date("2024-01-01"), -3},
		{"partial day rounds up", date("2024-01-01"), date("2024-01-02").Add(time.Hour), 2},
		{"month boundary", date("2024-01-30"), date("2024-02-02"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Nights(tt.in, tt.out))
		})
	}
}

func TestTax(t *testing.T) {
	assert.Equal(t, int64(900), GST(7500))
	assert.Equal(t, int64(0), GST(0))
	assert.Equal(t, int64(-300), GST(-2500))

	// halves round up
	assert.Equal(t, int64(13), Tax(125, decimal.RequireFromString("0.1")))
	assert.Equal(t, int64(12), Tax(124, decimal.RequireFromString("0.1")))
}

func TestGrandTotal(t *testing.T) {
	assert.Equal(t, int64(7000), GrandTotal(models.Booking{TotalAmount: 7500, Tax: 900, Discount: 500}))
	assert.Equal(t, int64(-500), GrandTotal(models.Booking{TotalAmount: 7500, Discount: 8000}))
}

func TestNewInvoice(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	b := models.Booking{
		ID:          7,
		RoomNumber:  3,
		RoomType:    models.RoomStandard,
		RoomRate:    2500,
		Nights:      3,
		TotalAmount: 7500,
		Tax:         900,
		Discount:    500,
		PaymentMode: models.PaymentUPI,
		Name:        "Asha Rao",
		Phone:       "9876543210",
		Aadhaar:     "123412341234",
		Status:      models.StatusBooked,
		CreatedAt:   created,
	}
	hotel := Hotel{Name: "Hotel Paradise"}

	inv := NewInvoice(b, hotel)
	assert.Equal(t, int64(7), inv.Number)
	assert.Equal(t, created, inv.Date)
	assert.Equal(t, "Hotel Paradise", inv.Hotel.Name)
	assert.Equal(t, int64(7500), inv.RoomCharges)
	assert.Equal(t, int64(900), inv.Tax)
	assert.Equal(t, int64(7000), inv.GrandTotal)
	assert.Equal(t, "Room Charges (3 nights × ₹2,500)", inv.ChargesLabel)
	assert.Equal(t, models.PaymentUPI, inv.PaymentMode)
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹0", FormatRupees(0))
	assert.Equal(t, "₹900", FormatRupees(900))
	assert.Equal(t, "₹7,000", FormatRupees(7000))
	assert.Equal(t, "₹1,00,000", FormatRupees(100000))
	assert.Equal(t, "₹12,34,56,789", FormatRupees(123456789))
	assert.Equal(t, "-₹500", FormatRupees(-500))
}
