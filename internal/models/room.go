package models

// RoomType is the category of a room. It fixes the nightly rate.
type RoomType string

const (
	RoomStandard RoomType = "Standard"
	RoomDeluxe   RoomType = "Deluxe"
	RoomSuite    RoomType = "Suite"
)

// RoomTypes lists categories in registry order.
var RoomTypes = []RoomType{RoomStandard, RoomDeluxe, RoomSuite}

// DefaultRates are nightly prices in whole rupees.
var DefaultRates = map[RoomType]int64{
	RoomStandard: 2500,
	RoomDeluxe:   3500,
	RoomSuite:    5000,
}

// Valid reports whether t is one of the known room types.
func (t RoomType) Valid() bool {
	switch t {
	case RoomStandard, RoomDeluxe, RoomSuite:
		return true
	}
	return false
}

type Room struct {
	Number int      `json:"number" yaml:"number"`
	Type   RoomType `json:"type" yaml:"type"`
	Rate   int64    `json:"rate" yaml:"rate"`
	Booked bool     `json:"booked" yaml:"booked"`
}
