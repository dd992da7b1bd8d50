package booking

import (
	"fmt"

	"github.com/hackgods/slot-booking/internal/schedule"
)

// Selection is the contiguous run of slots tentatively chosen for one
// service. The zero value has nothing selected.
type Selection struct {
	ServiceKey string

	start int
	set   bool
	run   []int
}

// Select picks the run of ceil(duration/step) slots starting at clicked on
// grid. The clicked slot must be free for the full service, and every block
// of the run must be on the grid and clear for the part of the service it
// covers. On failure the selection is left empty.
func (s *Selection) Select(clicked int, grid *schedule.Grid) ([]int, error) {
	s.Clear()

	duration, step := grid.DurationMinutes, grid.StepMinutes
	if duration <= 0 || step <= 0 {
		return nil, invalid(ErrNoService)
	}

	c, ok := grid.Lookup(clicked)
	if !ok {
		return nil, invalid(fmt.Errorf("%w: %s is not a slot of the day", ErrSlotUnavailable, schedule.FormatClock(clicked)))
	}
	if c.Status != schedule.SlotFree {
		return nil, invalid(fmt.Errorf("%w: %s is %s", ErrSlotUnavailable, c.Label(), c.Status))
	}

	blocks := (duration + step - 1) / step
	runEnd := clicked + duration
	run := make([]int, 0, blocks)
	for i := 0; i < blocks; i++ {
		m := clicked + i*step
		if _, ok := grid.Lookup(m); !ok {
			return nil, invalid(fmt.Errorf("%w: block %s", ErrRunOutOfRange, schedule.FormatClock(m)))
		}
		if !grid.RangeFree(m, min(m+step, runEnd)) {
			return nil, invalid(fmt.Errorf("%w: block %s", ErrSlotUnavailable, schedule.FormatClock(m)))
		}
		run = append(run, m)
	}

	s.start, s.set, s.run = clicked, true, run
	return s.Run(), nil
}

// Start returns the selected start in minutes after midnight.
func (s *Selection) Start() (int, bool) {
	return s.start, s.set
}

func (s *Selection) Run() []int {
	out := make([]int, len(s.run))
	copy(out, s.run)
	return out
}

func (s *Selection) Clear() {
	s.start, s.set, s.run = 0, false, nil
}
