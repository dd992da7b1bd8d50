package schedule

import (
	"time"
)

type SlotStatus string

const (
	SlotFree     SlotStatus = "free"
	SlotBusy     SlotStatus = "busy"
	SlotSelected SlotStatus = "selected"
)

type Candidate struct {
	Minutes int
	Start   time.Time
	Status  SlotStatus
}

// Label is the "HH:MM" shown for the candidate.
func (c Candidate) Label() string {
	return FormatClock(c.Minutes)
}

// Evaluator classifies slot candidates of a work day.
type Evaluator struct {
	WorkDay WorkDay
}

func NewEvaluator(w WorkDay) Evaluator {
	return Evaluator{WorkDay: w}
}

// Classify decides whether a service of durationMinutes starting at slotStart
// on date can be booked. The closing check uses the full service duration, so
// a grid point before closing is busy if the service would run past it.
func (e Evaluator) Classify(date time.Time, slotStart, durationMinutes int, busy []BusyInterval, now time.Time) SlotStatus {
	start := At(date, slotStart)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	if end.After(e.WorkDay.DayEnd(date)) {
		return SlotBusy
	}
	if !end.After(now) {
		return SlotBusy
	}
	if OverlapsAny(start, end, busy) {
		return SlotBusy
	}
	return SlotFree
}

// Grid is one render of a day: every candidate of the work day classified for
// a service duration against a busy snapshot.
type Grid struct {
	Date            time.Time
	DurationMinutes int
	StepMinutes     int
	Candidates      []Candidate

	dayEnd time.Time
	busy   []BusyInterval
	index  map[int]int
}

// Grid classifies every slot of date. busy is retained read-only.
func (e Evaluator) Grid(date time.Time, durationMinutes int, busy []BusyInterval, now time.Time) *Grid {
	slots := e.WorkDay.Slots()
	g := &Grid{
		Date:            date,
		DurationMinutes: durationMinutes,
		StepMinutes:     e.WorkDay.StepMinutes,
		Candidates:      make([]Candidate, 0, len(slots)),
		dayEnd:          e.WorkDay.DayEnd(date),
		busy:            busy,
		index:           make(map[int]int, len(slots)),
	}
	for i, m := range slots {
		g.Candidates = append(g.Candidates, Candidate{
			Minutes: m,
			Start:   At(date, m),
			Status:  e.Classify(date, m, durationMinutes, busy, now),
		})
		g.index[m] = i
	}
	return g
}

func (g *Grid) Lookup(minutes int) (Candidate, bool) {
	i, ok := g.index[minutes]
	if !ok {
		return Candidate{}, false
	}
	return g.Candidates[i], true
}

// RangeFree reports whether [from, to) on the grid's day is inside opening
// hours and clear of every busy interval.
func (g *Grid) RangeFree(from, to int) bool {
	start, end := At(g.Date, from), At(g.Date, to)
	if end.After(g.dayEnd) {
		return false
	}
	return !OverlapsAny(start, end, g.busy)
}

// Free returns the candidates currently classified free.
func (g *Grid) Free() []Candidate {
	var out []Candidate
	for _, c := range g.Candidates {
		if c.Status == SlotFree {
			out = append(out, c)
		}
	}
	return out
}

// WithSelection returns a copy of the candidates with run marked selected.
func (g *Grid) WithSelection(run []int) []Candidate {
	out := make([]Candidate, len(g.Candidates))
	copy(out, g.Candidates)
	for _, m := range run {
		if i, ok := g.index[m]; ok {
			out[i].Status = SlotSelected
		}
	}
	return out
}
