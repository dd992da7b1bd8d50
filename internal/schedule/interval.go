package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	StartLayout     = "2006-01-02T15:04"
	timestampLayout = "2006-01-02T15:04:05"
)

var ErrEmptyInterval = errors.New("interval end must be after start")

// BusyInterval is a half-open range [Start, End) already taken by a booking.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

func NewBusyInterval(start, end time.Time) (BusyInterval, error) {
	if !end.After(start) {
		return BusyInterval{}, fmt.Errorf("%w: %s - %s", ErrEmptyInterval, start.Format(StartLayout), end.Format(StartLayout))
	}
	return BusyInterval{Start: start, End: end}, nil
}

// ParseBusyInterval reads the wire timestamps of a busy interval. Both values
// are naive local date-times and are interpreted in loc.
func ParseBusyInterval(start, end string, loc *time.Location) (BusyInterval, error) {
	s, err := ParseLocal(start, loc)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("parse start_time: %w", err)
	}
	e, err := ParseLocal(end, loc)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("parse end_time: %w", err)
	}
	return NewBusyInterval(s, e)
}

// Overlaps reports whether [start, end) intersects b. Touching boundaries do
// not overlap, so back-to-back bookings are allowed.
func Overlaps(start, end time.Time, b BusyInterval) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// OverlapsAny reports whether [start, end) intersects any interval in busy.
func OverlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b) {
			return true
		}
	}
	return false
}

// ParseLocal accepts "YYYY-MM-DDTHH:MM" and "YYYY-MM-DDTHH:MM:SS" without a
// zone suffix.
func ParseLocal(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(timestampLayout, s, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation(StartLayout, s, loc)
}

// FormatStart renders t as a naive "YYYY-MM-DDTHH:MM" string using its wall clock.
func FormatStart(t time.Time) string {
	return t.Format(StartLayout)
}

// FormatTimestamp renders t as a naive "YYYY-MM-DDTHH:MM:SS" string.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// InLocation keeps the wall clock of t and re-labels it with loc. Naive
// database timestamps come back as UTC and need this before comparison.
func InLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
