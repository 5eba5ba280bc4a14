package store

import "errors"

var (
	ErrRoomUnavailable = errors.New("room is not available")
	ErrBookingNotFound = errors.New("booking not found")
)
