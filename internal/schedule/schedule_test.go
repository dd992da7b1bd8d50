package schedule

import (
	"errors"
	"testing"
	"time"
)

// Monday.
var testDay = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2026, time.October, 19, hour, min, 0, 0, time.UTC)
}

func mustInterval(t *testing.T, start, end time.Time) BusyInterval {
	t.Helper()
	b, err := NewBusyInterval(start, end)
	if err != nil {
		t.Fatalf("NewBusyInterval: %v", err)
	}
	return b
}

func TestOverlaps(t *testing.T) {
	busy := mustInterval(t, at(9, 0), at(9, 30))

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"ends at busy start", at(8, 30), at(9, 0), false},
		{"starts at busy end", at(9, 30), at(10, 0), false},
		{"identical", at(9, 0), at(9, 30), true},
		{"covers", at(8, 30), at(10, 0), true},
		{"inside", at(9, 10), at(9, 20), true},
		{"tail overlap", at(8, 45), at(9, 15), true},
		{"head overlap", at(9, 15), at(9, 45), true},
		{"far before", at(7, 30), at(8, 0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.start, tc.end, busy)
			want := tc.start.Before(busy.End) && tc.end.After(busy.Start)
			if got != tc.want || got != want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tc.start.Format("15:04"), tc.end.Format("15:04"), got, tc.want)
			}
		})
	}
}

func TestNewBusyInterval_RejectsEmpty(t *testing.T) {
	if _, err := NewBusyInterval(at(9, 0), at(9, 0)); !errors.Is(err, ErrEmptyInterval) {
		t.Fatalf("expected ErrEmptyInterval, got %v", err)
	}
	if _, err := NewBusyInterval(at(10, 0), at(9, 0)); !errors.Is(err, ErrEmptyInterval) {
		t.Fatalf("expected ErrEmptyInterval for reversed bounds, got %v", err)
	}
}

func TestParseBusyInterval(t *testing.T) {
	b, err := ParseBusyInterval("2026-10-19T09:00:00", "2026-10-19T09:30", time.UTC)
	if err != nil {
		t.Fatalf("ParseBusyInterval: %v", err)
	}
	if !b.Start.Equal(at(9, 0)) || !b.End.Equal(at(9, 30)) {
		t.Fatalf("unexpected interval %v", b)
	}

	if _, err := ParseBusyInterval("2026-10-19T09:00Z", "2026-10-19T09:30", time.UTC); err == nil {
		t.Fatalf("expected error for zoned timestamp")
	}
}

func TestGenerate_DefaultWorkDay(t *testing.T) {
	slots := DefaultWorkDay.Slots()

	if len(slots) != (1080-450)/30 {
		t.Fatalf("expected 21 slots, got %d", len(slots))
	}
	if slots[0] != 450 || slots[len(slots)-1] != 1050 {
		t.Fatalf("unexpected bounds first=%d last=%d", slots[0], slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i]-slots[i-1] != 30 {
			t.Fatalf("gap at %d: %d -> %d", i, slots[i-1], slots[i])
		}
	}
}

func TestGenerate_Degenerate(t *testing.T) {
	if got := Generate(600, 600, 30); len(got) != 0 {
		t.Fatalf("expected no slots for empty window, got %v", got)
	}
	if got := Generate(600, 700, 0); got != nil {
		t.Fatalf("expected nil for zero step, got %v", got)
	}
	if got := Generate(600, 700, 45); len(got) != 3 || got[2] != 690 {
		t.Fatalf("unexpected slots for unaligned end: %v", got)
	}
}

func TestGenerate_Restartable(t *testing.T) {
	a := Generate(450, 1080, 30)
	b := Generate(450, 1080, 30)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("differs at %d", i)
		}
	}
}

func TestWorkDayValidate(t *testing.T) {
	if err := DefaultWorkDay.Validate(); err != nil {
		t.Fatalf("default work day invalid: %v", err)
	}
	bad := []WorkDay{
		{StartMinutes: 450, EndMinutes: 1080, StepMinutes: 0},
		{StartMinutes: 1080, EndMinutes: 450, StepMinutes: 30},
		{StartMinutes: -10, EndMinutes: 450, StepMinutes: 30},
		{StartMinutes: 450, EndMinutes: 1500, StepMinutes: 30},
	}
	for _, w := range bad {
		if err := w.Validate(); !errors.Is(err, ErrInvalidWorkDay) {
			t.Fatalf("expected ErrInvalidWorkDay for %+v, got %v", w, err)
		}
	}
}

func TestClassify_BoundaryAdjacentSlotsAreFree(t *testing.T) {
	e := NewEvaluator(DefaultWorkDay)
	busy := []BusyInterval{mustInterval(t, at(9, 0), at(9, 30))}
	now := at(7, 0)

	if got := e.Classify(testDay, 540, 30, busy, now); got != SlotBusy {
		t.Fatalf("09:00 should be busy, got %s", got)
	}
	if got := e.Classify(testDay, 510, 30, busy, now); got != SlotFree {
		t.Fatalf("08:30 should be free, got %s", got)
	}
	if got := e.Classify(testDay, 570, 30, busy, now); got != SlotFree {
		t.Fatalf("09:30 should be free, got %s", got)
	}
}

func TestClassify_ServiceRunningPastClosing(t *testing.T) {
	e := NewEvaluator(DefaultWorkDay)
	now := at(7, 0)

	if got := e.Classify(testDay, 990, 90, nil, now); got != SlotFree {
		t.Fatalf("16:30 + 90min ends at closing, expected free, got %s", got)
	}
	if got := e.Classify(testDay, 1020, 90, nil, now); got != SlotBusy {
		t.Fatalf("17:00 + 90min runs past closing, expected busy, got %s", got)
	}
	if got := e.Classify(testDay, 1050, 30, nil, now); got != SlotFree {
		t.Fatalf("last grid slot with step-length service should be free, got %s", got)
	}
}

func TestClassify_Now(t *testing.T) {
	e := NewEvaluator(DefaultWorkDay)

	if got := e.Classify(testDay, 540, 30, nil, at(9, 30)); got != SlotBusy {
		t.Fatalf("slot ending exactly now should be busy, got %s", got)
	}
	if got := e.Classify(testDay, 540, 30, nil, at(9, 29)); got != SlotFree {
		t.Fatalf("slot ending after now should be free, got %s", got)
	}
}

func TestGrid_BusyIntervalFlipsOnlyIntersectingSlots(t *testing.T) {
	e := NewEvaluator(DefaultWorkDay)
	now := at(6, 0)
	const duration = 60

	before := e.Grid(testDay, duration, nil, now)
	busy := []BusyInterval{mustInterval(t, at(11, 0), at(12, 0))}
	after := e.Grid(testDay, duration, busy, now)

	for i, c := range after.Candidates {
		start := c.Start
		end := start.Add(duration * time.Minute)
		intersects := Overlaps(start, end, busy[0])
		flipped := before.Candidates[i].Status != c.Status

		if before.Candidates[i].Status == SlotBusy {
			if flipped {
				t.Fatalf("%s flipped from busy", c.Label())
			}
			continue
		}
		if flipped != intersects {
			t.Fatalf("%s flipped=%v intersects=%v", c.Label(), flipped, intersects)
		}
	}

	// 10:30 and 11:30 intersect a 60 minute service; 10:00 and 12:00 touch only.
	for _, m := range []int{630, 660, 690} {
		if c, _ := after.Lookup(m); c.Status != SlotBusy {
			t.Fatalf("%s should be busy", c.Label())
		}
	}
	for _, m := range []int{600, 720} {
		if c, _ := after.Lookup(m); c.Status != SlotFree {
			t.Fatalf("%s should be free", c.Label())
		}
	}
}

func TestGrid_RangeFreeAndSelection(t *testing.T) {
	e := NewEvaluator(DefaultWorkDay)
	busy := []BusyInterval{mustInterval(t, at(9, 0), at(9, 30))}
	g := e.Grid(testDay, 30, busy, at(7, 0))

	if g.RangeFree(510, 570) {
		t.Fatalf("08:30-09:30 overlaps busy interval")
	}
	if !g.RangeFree(570, 600) {
		t.Fatalf("09:30-10:00 should be free")
	}
	if g.RangeFree(1050, 1110) {
		t.Fatalf("range past closing should not be free")
	}

	marked := g.WithSelection([]int{450, 480})
	if marked[0].Status != SlotSelected || marked[1].Status != SlotSelected || marked[2].Status != SlotFree {
		t.Fatalf("unexpected marks %v %v %v", marked[0].Status, marked[1].Status, marked[2].Status)
	}
	if g.Candidates[0].Status != SlotFree {
		t.Fatalf("WithSelection must not mutate the grid")
	}
}

func TestFormatStart_RoundTrip(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	date := time.Date(2026, time.October, 19, 0, 0, 0, 0, loc)

	for _, m := range DefaultWorkDay.Slots() {
		start := At(date, m)
		text := FormatStart(start)

		parsed, err := ParseLocal(text, loc)
		if err != nil {
			t.Fatalf("ParseLocal(%q): %v", text, err)
		}
		if !parsed.Equal(start) {
			t.Fatalf("round trip drift: %s -> %s", start, parsed)
		}
		if y, mo, d := parsed.Date(); y != 2026 || mo != time.October || d != 19 {
			t.Fatalf("date changed: %s", parsed)
		}
		if parsed.Hour()*60+parsed.Minute() != m {
			t.Fatalf("minutes changed: %d -> %s", m, text)
		}
	}
}

func TestIsWeekday(t *testing.T) {
	if !IsWeekday(testDay) {
		t.Fatalf("Monday should be a weekday")
	}
	if IsWeekday(testDay.AddDate(0, 0, 5)) || IsWeekday(testDay.AddDate(0, 0, 6)) {
		t.Fatalf("Saturday and Sunday should not be weekdays")
	}
}

func TestInLocation_KeepsWallClock(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := InLocation(at(9, 30), loc)
	if got.Hour() != 9 || got.Minute() != 30 || got.Location() != loc {
		t.Fatalf("unexpected %s", got)
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:30")
	if err != nil || m != 450 {
		t.Fatalf("ParseClock(07:30) = %d, %v", m, err)
	}
	if FormatClock(1050) != "17:30" {
		t.Fatalf("FormatClock(1050) = %s", FormatClock(1050))
	}
	if _, err := ParseClock("7h30"); err == nil {
		t.Fatalf("expected error")
	}
}
