package store

import (
	"testing"
	"time"
)

func TestFormatTimeStringOrderIsChronological(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 5, 0, time.UTC)
	pairs := [][2]time.Time{
		// Whole second against a fraction within the same second. A trimmed
		// fraction would make the whole second sort after it.
		{base, base.Add(500 * time.Millisecond)},
		{base.Add(-time.Nanosecond), base},
		{base.Add(999_999_999 * time.Nanosecond), base.Add(time.Second)},
		{base, base.Add(time.Hour)},
	}
	for _, pair := range pairs {
		earlier, later := formatTime(pair[0]), formatTime(pair[1])
		if earlier >= later {
			t.Errorf("formatTime(%v) = %q sorts after formatTime(%v) = %q", pair[0], earlier, pair[1], later)
		}
	}
}

func TestFormatTimeRoundTrips(t *testing.T) {
	values := []time.Time{
		time.Date(2026, 8, 29, 10, 0, 5, 0, time.UTC),
		time.Date(2026, 8, 29, 10, 0, 5, 123456789, time.UTC),
	}
	for _, value := range values {
		parsed, err := parseTimeString(formatTime(value))
		if err != nil {
			t.Fatalf("parseTimeString(%q): %v", formatTime(value), err)
		}
		if !parsed.Equal(value) {
			t.Fatalf("round trip = %v, want %v", parsed, value)
		}
	}
}
