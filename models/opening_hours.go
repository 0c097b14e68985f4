package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OpeningHours holds one weekday's open window. DayOfWeek follows
// time.Weekday numbering: 0 = Sunday .. 6 = Saturday. OpenTime and
// CloseTime are wall-clock "HH:MM" strings with no date component.
type OpeningHours struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DayOfWeek int       `gorm:"uniqueIndex;not null" json:"day_of_week"`
	// No default tag: gorm would omit a false value on insert and let
	// the column default flip a closed day back to open.
	IsOpen    bool      `gorm:"not null" json:"is_open"`
	OpenTime  string    `gorm:"type:varchar(5);not null" json:"open_time"`
	CloseTime string    `gorm:"type:varchar(5);not null" json:"close_time"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// FormatClock converts minutes since midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DefaultOpeningHours returns the seed calendar: weekdays 12:00-23:00,
// weekends 11:00-22:00.
func DefaultOpeningHours() []OpeningHours {
	hours := make([]OpeningHours, 0, 7)
	for day := 0; day < 7; day++ {
		weekend := day == 0 || day == 6
		entry := OpeningHours{
			DayOfWeek: day,
			IsOpen:    true,
			OpenTime:  "12:00",
			CloseTime: "23:00",
		}
		if weekend {
			entry.OpenTime = "11:00"
			entry.CloseTime = "22:00"
		}
		hours = append(hours, entry)
	}
	return hours
}
