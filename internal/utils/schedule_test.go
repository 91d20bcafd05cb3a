package utils

import (
	"reflect"
	"testing"
)

func TestValidTime(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"09:00", true},
		{"9:00", true},
		{"23:59", true},
		{"00:00", true},
		{"24:00", false},
		{"12:60", false},
		{"12:5", false},
		{"noon", false},
		{"", false},
		{"09:00:00", false},
	}
	for _, c := range cases {
		if got := ValidTime(c.in); got != c.want {
			t.Errorf("ValidTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWorkingHoursTemplate(t *testing.T) {
	if len(WorkingHours) != 13 {
		t.Fatalf("template has %d slots, want 13", len(WorkingHours))
	}
	if WorkingHours[0] != "09:00" || WorkingHours[5] != "11:30" {
		t.Errorf("morning block wrong: %v", WorkingHours[:6])
	}
	if WorkingHours[6] != "14:00" || WorkingHours[12] != "17:00" {
		t.Errorf("afternoon block wrong: %v", WorkingHours[6:])
	}
	for i := range WorkingHours {
		if i > 0 && WorkingHours[i] <= WorkingHours[i-1] {
			t.Errorf("template not strictly ascending at %d: %q <= %q", i, WorkingHours[i], WorkingHours[i-1])
		}
	}
}

func TestAvailableSlots(t *testing.T) {
	free := AvailableSlots([]string{"09:30", "14:00", "17:00"})
	want := []string{"09:00", "10:00", "10:30", "11:00", "11:30", "14:30", "15:00", "15:30", "16:00", "16:30"}
	if !reflect.DeepEqual(free, want) {
		t.Errorf("AvailableSlots = %v, want %v", free, want)
	}

	// Booked times outside the template do not affect the result.
	if got := AvailableSlots([]string{"08:00", "12:00"}); !reflect.DeepEqual(got, WorkingHours) {
		t.Errorf("off-template bookings changed the result: %v", got)
	}

	if got := AvailableSlots(nil); !reflect.DeepEqual(got, WorkingHours) {
		t.Errorf("empty day should expose the full template, got %v", got)
	}

	if got := AvailableSlots(WorkingHours); len(got) != 0 {
		t.Errorf("fully booked day should have no free slots, got %v", got)
	}
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"09:00:00": "09:00",
		"14:30":    "14:30",
		"9:00":     "9:00",
		"":         "",
	}
	for in, want := range cases {
		if got := NormalizeClock(in); got != want {
			t.Errorf("NormalizeClock(%q) = %q, want %q", in, got, want)
		}
	}
}
