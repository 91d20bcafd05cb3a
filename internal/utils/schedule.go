package utils

import "regexp"

// WorkingHours is the fixed daily template of bookable half-hour
// slots: a morning block 09:00-11:30 and an afternoon block
// 14:00-17:00.
var WorkingHours = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
}

var timeRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTime reports whether s is a well-formed HH:MM 24-hour time.
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

// AvailableSlots returns the working-hours template minus the
// already booked times. Booked times not in the template are
// ignored; order of the template is preserved.
func AvailableSlots(booked []string) []string {
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b] = true
	}
	free := make([]string, 0, len(WorkingHours))
	for _, slot := range WorkingHours {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free
}

// NormalizeClock trims a DB TIME value (HH:MM:SS) down to HH:MM so
// it can be compared against the slot template.
func NormalizeClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}
