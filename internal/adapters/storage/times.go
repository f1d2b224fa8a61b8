package storage

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for every stored timestamp.
// Fixed width keeps TEXT ordering equal to chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime renders t for a nullable column; the zero time becomes NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime reads a stored timestamp, accepting older layouts.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		TimeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
