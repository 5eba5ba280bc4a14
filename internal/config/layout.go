package config

import (
	"fmt"
	"os"

	"frontdesk/internal/models"

	"gopkg.in/yaml.v2"
)

// roomLayoutFile is the on-disk shape of configs/rooms.yaml.
type roomLayoutFile struct {
	Rooms struct {
		Count    int                       `yaml:"count"`
		Standard int                       `yaml:"standard"`
		Deluxe   int                       `yaml:"deluxe"`
		Rates    map[models.RoomType]int64 `yaml:"rates"`
	} `yaml:"rooms"`
}

// LoadRoomLayout reads a layout file and overlays it on base. Rates missing
// from the file keep the base values.
func LoadRoomLayout(path string, base RoomsConfig) (RoomsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RoomsConfig{}, fmt.Errorf("read room layout: %w", err)
	}

	var file roomLayoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return RoomsConfig{}, fmt.Errorf("parse room layout: %w", err)
	}

	out := RoomsConfig{
		LayoutPath: path,
		Count:      file.Rooms.Count,
		Standard:   file.Rooms.Standard,
		Deluxe:     file.Rooms.Deluxe,
		Rates:      make(map[models.RoomType]int64, len(models.RoomTypes)),
	}
	for t, r := range base.Rates {
		out.Rates[t] = r
	}
	for t, r := range file.Rooms.Rates {
		out.Rates[t] = r
	}

	if err := ValidateRooms(out); err != nil {
		return RoomsConfig{}, fmt.Errorf("room layout %s: %w", path, err)
	}
	return out, nil
}
