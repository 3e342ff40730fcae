package model

import (
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp resolves a stored timestamp text. Zone-less layouts are read as UTC.
func ParseTimestamp(text string) (time.Time, bool) {
	return ParseTimestampIn(text, time.UTC)
}

// ParseTimestampIn is ParseTimestamp reading zone-less layouts in loc.
func ParseTimestampIn(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way new records are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Time resolves the meal timestamp.
func (m Meal) Time() (time.Time, bool) { return ParseTimestamp(m.Timestamp) }

// Time resolves the symptom timestamp.
func (s Symptom) Time() (time.Time, bool) { return ParseTimestamp(s.Timestamp) }
