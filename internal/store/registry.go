package store

import "frontdesk/internal/models"

// Boundaries split the room sequence by type: the first Standard rooms are
// Standard, the next Deluxe are Deluxe and the remainder are Suites.
type Boundaries struct {
	Standard int `yaml:"standard"`
	Deluxe   int `yaml:"deluxe"`
}

// InitializeRooms builds the fixed room registry numbered 1..count.
// Types missing from rates fall back to models.DefaultRates.
func InitializeRooms(count int, b Boundaries, rates map[models.RoomType]int64) []models.Room {
	if count < 0 {
		count = 0
	}
	rooms := make([]models.Room, 0, count)
	for i := 0; i < count; i++ {
		t := models.RoomSuite
		switch {
		case i < b.Standard:
			t = models.RoomStandard
		case i < b.Standard+b.Deluxe:
			t = models.RoomDeluxe
		}

		rate, ok := rates[t]
		if !ok || rate <= 0 {
			rate = models.DefaultRates[t]
		}

		rooms = append(rooms, models.Room{Number: i + 1, Type: t, Rate: rate})
	}
	return rooms
}
