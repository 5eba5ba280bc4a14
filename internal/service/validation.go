package service

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"frontdesk/internal/models"

	"github.com/go-playground/validator/v10"
)

// BookingRequest is the front-desk intake form.
type BookingRequest struct {
	Name       string           `json:"name" validate:"required"`
	Phone      string           `json:"phone" validate:"len=10,number"`
	Aadhaar    string           `json:"aadhaar" validate:"len=12,number"`
	CheckIn    string           `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string           `json:"check_out" validate:"required,datetime=2006-01-02"`
	RoomNumber int              `json:"room_number" validate:"required_without=RoomType,gte=0"`
	RoomType   models.RoomType  `json:"room_type" validate:"omitempty,oneof=Standard Deluxe Suite"`
	Status     string           `json:"status,omitempty" validate:"omitempty,oneof=Booked confirmed checked-in pending completed"`
	Rating     int              `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Document   *models.Document `json:"document,omitempty"`
}

// ValidationError maps form fields (json names) to messages.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var fieldMessages = map[string]map[string]string{
	"name":        {"": "Name is required"},
	"phone":       {"": "Enter a valid 10-digit phone number"},
	"aadhaar":     {"": "Enter a valid 12-digit Aadhaar number"},
	"check_in":    {"required": "Check-in date is required", "": "Check-in date must be YYYY-MM-DD"},
	"check_out":   {"required": "Check-out date is required", "": "Check-out date must be YYYY-MM-DD"},
	"room_number": {"": "Please select a room"},
	"room_type":   {"": "Room type must be Standard, Deluxe or Suite"},
	"rating":      {"": "Rating must be between 0 and 5"},
	"status":      {"": "Status must be Booked, confirmed, checked-in, pending or completed"},
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func messageFor(field, tag string) string {
	msgs, ok := fieldMessages[field]
	if !ok {
		return "is invalid"
	}
	if m, ok := msgs[tag]; ok {
		return m
	}
	return msgs[""]
}

// Validate normalizes the request and checks it. It returns the parsed
// check-in and check-out dates.
func (r *BookingRequest) Validate(v *validator.Validate) (time.Time, time.Time, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Aadhaar = strings.TrimSpace(r.Aadhaar)

	fields := make(map[string]string)
	if err := v.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return time.Time{}, time.Time{}, err
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = messageFor(fe.Field(), fe.Tag())
			}
		}
	}

	var checkIn, checkOut time.Time
	_, inBad := fields["check_in"]
	_, outBad := fields["check_out"]
	if !inBad && !outBad {
		checkIn, _ = time.Parse(models.DateLayout, r.CheckIn)
		checkOut, _ = time.Parse(models.DateLayout, r.CheckOut)
		if !checkOut.After(checkIn) {
			fields["check_out"] = "Check-out date must be after check-in date"
		}
	}

	if len(fields) > 0 {
		return time.Time{}, time.Time{}, &ValidationError{Fields: fields}
	}
	return checkIn, checkOut, nil
}

func (r *BookingRequest) toAllocate(checkIn, checkOut time.Time) models.AllocateRequest {
	return models.AllocateRequest{
		RoomNumber: r.RoomNumber,
		RoomType:   r.RoomType,
		Name:       r.Name,
		Phone:      r.Phone,
		Aadhaar:    r.Aadhaar,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     r.Status,
		Rating:     r.Rating,
		Document:   r.Document,
	}
}
