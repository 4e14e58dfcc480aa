package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDay accepts a full weekday name, case-insensitively.
func ParseDay(name string) (Day, bool) {
	name = strings.TrimSpace(name)
	for i, dayName := range dayNames {
		if strings.EqualFold(name, dayName) {
			return Day(i), true
		}
	}
	return 0, false
}

// ParseStartTime maps "9:00", "09:00" or "14:30" to its hour index in the daily window.
func ParseStartTime(startTime string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(startTime), ":")
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	clock, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	hour := clock - FirstHour
	if hour < 0 || hour >= HoursPerDay {
		return 0, false
	}
	return hour, true
}

// StartTime formats an hour index as a zero-padded wall-clock time ("09:00").
func StartTime(hour int) string {
	return fmt.Sprintf("%02d:00", FirstHour+hour)
}

// EndTime formats the end of the single-hour session starting at hour.
func EndTime(hour int) string {
	return fmt.Sprintf("%02d:00", FirstHour+hour+1)
}
