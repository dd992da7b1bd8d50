package schedule

import (
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidWorkDay = errors.New("invalid work day")

// WorkDay describes the bookable window of a day in minutes from midnight.
type WorkDay struct {
	StartMinutes int
	EndMinutes   int
	StepMinutes  int
}

// DefaultWorkDay is 07:30 to 18:00 on a 30 minute grid.
var DefaultWorkDay = WorkDay{StartMinutes: 450, EndMinutes: 1080, StepMinutes: 30}

func (w WorkDay) Validate() error {
	switch {
	case w.StepMinutes <= 0:
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidWorkDay, w.StepMinutes)
	case w.StartMinutes < 0 || w.EndMinutes > minutesPerDay:
		return fmt.Errorf("%w: bounds %d-%d outside of a day", ErrInvalidWorkDay, w.StartMinutes, w.EndMinutes)
	case w.StartMinutes >= w.EndMinutes:
		return fmt.Errorf("%w: start %d not before end %d", ErrInvalidWorkDay, w.StartMinutes, w.EndMinutes)
	}
	return nil
}

// Slots returns the candidate slot starts of the work day.
func (w WorkDay) Slots() []int {
	return Generate(w.StartMinutes, w.EndMinutes, w.StepMinutes)
}

// Generate yields start, start+step, ... while the value is below end.
func Generate(start, end, step int) []int {
	if step <= 0 || start >= end {
		return nil
	}
	out := make([]int, 0, (end-start+step-1)/step)
	for m := start; m < end; m += step {
		out = append(out, m)
	}
	return out
}

// At builds the local time minutes after midnight on date's calendar day,
// in date's location.
func At(date time.Time, minutes int) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, minutes/60, minutes%60, 0, 0, date.Location())
}

// DayEnd is the closing boundary of the work day on date.
func (w WorkDay) DayEnd(date time.Time) time.Time {
	return At(date, w.EndMinutes)
}

// DayStart is the opening boundary of the work day on date.
func (w WorkDay) DayStart(date time.Time) time.Time {
	return At(date, w.StartMinutes)
}

// IsWeekday reports whether date falls on Monday to Friday.
func IsWeekday(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ParseDate parses "YYYY-MM-DD" as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
