package models

import (
	"strconv"
	"strings"
	"time"
)

// Draft is the unsubmitted booking form of one front-desk terminal.
type Draft struct {
	DeskID    string                 `json:"desk_id"`
	Fields    map[string]interface{} `json:"fields"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (d *Draft) GetInt64(key string) int64 {
	if d.Fields == nil {
		return 0
	}
	val, ok := d.Fields[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (d *Draft) GetString(key string) string {
	if d.Fields == nil {
		return ""
	}
	val, ok := d.Fields[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// GetTime accepts time.Time values as well as date-only and RFC3339 strings.
func (d *Draft) GetTime(key string) time.Time {
	if d.Fields == nil {
		return time.Time{}
	}
	val, ok := d.Fields[key]
	if !ok {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			t, err = time.Parse(time.RFC3339, v)
			if err != nil {
				return time.Time{}
			}
		}
		return t
	default:
		return time.Time{}
	}
}
