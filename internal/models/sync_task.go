package models

import "time"

// SyncTask is one queued change to the bookings mirror sheet.
type SyncTask struct {
	ID         string    `json:"id"`
	TaskType   string    `json:"task_type"`
	BookingID  int64     `json:"booking_id"`
	Booking    *Booking  `json:"booking,omitempty"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	TaskUpsert = "upsert"
	TaskDelete = "delete"
)
