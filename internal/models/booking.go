package models

import "time"

// Document is an opaque guest document handle (ID scan, PDF). It is stored as given.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

type Booking struct {
	ID          int64       `json:"id"`
	RoomNumber  int         `json:"room_number"`
	RoomType    RoomType    `json:"room_type"`
	RoomRate    int64       `json:"room_rate"`
	Nights      int         `json:"nights"`
	TotalAmount int64       `json:"total_amount"`
	Tax         int64       `json:"tax"`
	Discount    int64       `json:"discount"`
	PaymentMode PaymentMode `json:"payment_mode"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Aadhaar     string      `json:"aadhaar"`
	CheckIn     time.Time   `json:"check_in"`
	CheckOut    time.Time   `json:"check_out"`
	Status      string      `json:"status"` // Booked, confirmed, checked-in, pending, completed
	Rating      int         `json:"rating"`
	Document    *Document   `json:"document,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BookingUpdate carries billing-view edits. Nil fields are left untouched.
type BookingUpdate struct {
	Discount    *int64       `json:"discount,omitempty"`
	PaymentMode *PaymentMode `json:"payment_mode,omitempty"`
	Status      *string      `json:"status,omitempty"`
	Rating      *int         `json:"rating,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u BookingUpdate) Empty() bool {
	return u.Discount == nil && u.PaymentMode == nil && u.Status == nil && u.Rating == nil
}

// AllocateRequest is the input of room allocation. RoomNumber selects an exact
// room; when it is zero the first free room of RoomType is taken.
type AllocateRequest struct {
	RoomNumber int
	RoomType   RoomType
	Name       string
	Phone      string
	Aadhaar    string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     string
	Rating     int
	Document   *Document
}

// ReleaseResult reports what a release touched. A release that matched
// nothing is not an error.
type ReleaseResult struct {
	RoomNumber int       `json:"room_number"`
	RoomFound  bool      `json:"room_found"`
	Removed    []Booking `json:"removed"`
}

// NoOp reports whether the release changed nothing.
func (r ReleaseResult) NoOp() bool {
	return !r.RoomFound && len(r.Removed) == 0
}
