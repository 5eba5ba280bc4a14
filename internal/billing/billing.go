// Package billing derives the money fields of a booking and renders the invoice view.
package billing

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"frontdesk/internal/models"

	"github.com/shopspring/decimal"
)

var (
	gstRate = decimal.RequireFromString(models.GSTRate)
	half    = decimal.RequireFromString("0.5")
)

const day = 24 * time.Hour

// Nights is the ceiling of whole days between check-in and check-out.
// Non-positive results are returned as is.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(float64(checkOut.Sub(checkIn)) / float64(day)))
}

// Tax returns round(total*rate) rounding halves up, the way the desk UI always did.
func Tax(total int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(total).Mul(rate).Add(half).Floor().IntPart()
}

// GST is Tax at the standard 12% rate.
func GST(total int64) int64 {
	return Tax(total, gstRate)
}

// GrandTotal is totalAmount minus discount. Tax is not part of this figure and
// an oversized discount yields a negative total.
func GrandTotal(b models.Booking) int64 {
	return b.TotalAmount - b.Discount
}

// Hotel is the letterhead printed on invoices.
type Hotel struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	Phone   string `yaml:"phone" json:"phone"`
	Email   string `yaml:"email" json:"email"`
}

type Invoice struct {
	Number       int64              `json:"number"`
	Date         time.Time          `json:"date"`
	Status       string             `json:"status"`
	Hotel        Hotel              `json:"hotel"`
	GuestName    string             `json:"guest_name"`
	Phone        string             `json:"phone"`
	Aadhaar      string             `json:"aadhaar"`
	RoomNumber   int                `json:"room_number"`
	RoomType     models.RoomType    `json:"room_type"`
	Nights       int                `json:"nights"`
	RoomRate     int64              `json:"room_rate"`
	ChargesLabel string             `json:"charges_label"`
	RoomCharges  int64              `json:"room_charges"`
	Tax          int64              `json:"tax"`
	Discount     int64              `json:"discount"`
	PaymentMode  models.PaymentMode `json:"payment_mode"`
	GrandTotal   int64              `json:"grand_total"`
}

func NewInvoice(b models.Booking, hotel Hotel) Invoice {
	return Invoice{
		Number:       b.ID,
		Date:         b.CreatedAt,
		Status:       b.Status,
		Hotel:        hotel,
		GuestName:    b.Name,
		Phone:        b.Phone,
		Aadhaar:      b.Aadhaar,
		RoomNumber:   b.RoomNumber,
		RoomType:     b.RoomType,
		Nights:       b.Nights,
		RoomRate:     b.RoomRate,
		ChargesLabel: fmt.Sprintf("Room Charges (%d nights × %s)", b.Nights, FormatRupees(b.RoomRate)),
		RoomCharges:  b.TotalAmount,
		Tax:          b.Tax,
		Discount:     b.Discount,
		PaymentMode:  b.PaymentMode,
		GrandTotal:   GrandTotal(b),
	}
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹1,00,000.
func FormatRupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	out := tail
	for len(head) > 2 {
		out = head[len(head)-2:] + "," + out
		head = head[:len(head)-2]
	}
	return sign + "₹" + head + "," + out
}
