package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/config"
	redisclient "github.com/hackgods/slot-booking/internal/redis"
	"github.com/hackgods/slot-booking/internal/schedule"
)

// Monday, 19 October 2026
var testNow = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

type busyLocker struct{}

func (busyLocker) WithDayLock(context.Context, time.Time, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(t *testing.T, locker redisclient.Locker) (*Service, *MemoryRepository) {
	t.Helper()

	repo := NewMemoryRepository()
	if locker == nil {
		locker = redisclient.NewLocalDayLocker()
	}
	cfg := config.Config{WorkDay: schedule.DefaultWorkDay, Location: time.UTC}
	svc := NewService(repo, locker, catalog.Default(), cfg, nil, WithClock(func() time.Time { return testNow }))
	return svc, repo
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, time.UTC)
}

func input(service string, start time.Time) BookInput {
	return BookInput{Name: "Erika Muster", Phone: "0171 1234567", Email: "erika@example.com", Service: service, StartTime: start}
}

func TestBook_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)

	tests := []struct {
		name string
		in   BookInput
		want error
	}{
		{"unknown service", input("car_rocket", at(19, 9, 0)), ErrUnknownService},
		{"missing name", BookInput{Phone: "1", Service: "car_spa", StartTime: at(19, 9, 0)}, ErrMissingContact},
		{"missing phone", BookInput{Name: "A", Service: "car_spa", StartTime: at(19, 9, 0)}, ErrMissingContact},
		{"saturday", input("car_spa", at(24, 9, 0)), ErrWeekend},
		{"in the past", input("car_spa", at(19, 7, 30)), ErrInPast},
		{"before opening", input("car_spa", at(20, 7, 0)), ErrOutsideHours},
		{"runs past closing", input("car_wellness", at(20, 16, 30)), ErrOutsideHours},
		// unknown service wins over the weekend check
		{"order", BookInput{Service: "nope", StartTime: at(24, 9, 0)}, ErrUnknownService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBook_CreatesConfirmedBooking(t *testing.T) {
	svc, repo := newTestService(t, nil)

	b, err := svc.Book(context.Background(), input("car_easy", at(19, 9, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.Status != StatusConfirmed || b.ID == 0 || b.CancelToken == uuid.Nil {
		t.Fatalf("unexpected booking %+v", b)
	}
	if !b.EndTime.Equal(at(19, 10, 30)) {
		t.Fatalf("end should be start plus 90 minutes, got %s", b.EndTime)
	}

	events := repo.Events()
	if len(events) != 1 || events[0].EventType != EventBookingCreated {
		t.Fatalf("expected one created event, got %+v", events)
	}
}

func TestBook_EndingAtClosingIsAllowed(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.Book(context.Background(), input("car_wellness", at(20, 16, 0))); err != nil {
		t.Fatalf("booking that ends exactly at closing should succeed: %v", err)
	}
}

func TestBook_Overlap(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Book(ctx, input("car_easy", at(19, 9, 0))); err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := svc.Book(ctx, input("car_spa", at(19, 10, 0))); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := svc.Book(ctx, input("car_spa", at(19, 8, 30))); err != nil {
		t.Fatalf("back-to-back before should succeed: %v", err)
	}
	if _, err := svc.Book(ctx, input("car_spa", at(19, 10, 30))); err != nil {
		t.Fatalf("back-to-back after should succeed: %v", err)
	}
}

func TestBook_CanceledBookingFreesTime(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	b, err := svc.Book(ctx, input("car_spa", at(19, 9, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.CancelBooking(ctx, b.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if _, err := svc.Book(ctx, input("car_spa", at(19, 9, 0))); err != nil {
		t.Fatalf("time should be free again: %v", err)
	}
}

func TestBook_LockContention(t *testing.T) {
	svc, repo := newTestService(t, busyLocker{})

	if _, err := svc.Book(context.Background(), input("car_spa", at(19, 9, 0))); !errors.Is(err, ErrDayBeingBooked) {
		t.Fatalf("expected ErrDayBeingBooked, got %v", err)
	}
	if all, _ := repo.ListBookings(context.Background()); len(all) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(all))
	}
}

func TestBusyIntervals(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, start := range []time.Time{at(19, 9, 0), at(20, 11, 0), at(21, 14, 0)} {
		if _, err := svc.Book(ctx, input("car_spa", start)); err != nil {
			t.Fatalf("Book %s: %v", start, err)
		}
	}

	all, err := svc.BusyIntervals(ctx, time.Time{})
	if err != nil {
		t.Fatalf("BusyIntervals: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 intervals, got %d", len(all))
	}

	day, err := svc.BusyIntervals(ctx, at(20, 0, 0))
	if err != nil {
		t.Fatalf("BusyIntervals: %v", err)
	}
	if len(day) != 1 || !day[0].Start.Equal(at(20, 11, 0)) || !day[0].End.Equal(at(20, 11, 30)) {
		t.Fatalf("unexpected day intervals %+v", day)
	}
}

func TestCancelBooking(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CancelBooking(ctx, 42); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	b, err := svc.Book(ctx, input("car_spa", at(19, 9, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.CancelBooking(ctx, b.ID)
		if err != nil {
			t.Fatalf("CancelBooking #%d: %v", i+1, err)
		}
		if got.Status != StatusCanceled {
			t.Fatalf("expected canceled, got %s", got.Status)
		}
	}

	canceled := 0
	for _, ev := range repo.Events() {
		if ev.EventType == EventBookingCanceled {
			canceled++
		}
	}
	if canceled != 1 {
		t.Fatalf("second cancel should be a no-op, got %d cancel events", canceled)
	}
}

func TestCancelByToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CancelByToken(ctx, uuid.New()); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	b, err := svc.Book(ctx, input("car_spa", at(19, 9, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	got, err := svc.CancelByToken(ctx, b.CancelToken)
	if err != nil {
		t.Fatalf("CancelByToken: %v", err)
	}
	if got.ID != b.ID || got.Status != StatusCanceled {
		t.Fatalf("unexpected booking %+v", got)
	}

	if _, err := svc.CancelByToken(ctx, b.CancelToken); !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("expected ErrAlreadyCanceled, got %v", err)
	}
}

func TestCompleteEndedBookings(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	early, err := svc.Book(ctx, input("car_spa", at(19, 9, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	late, err := svc.Book(ctx, input("car_spa", at(19, 15, 0)))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	svc.now = func() time.Time { return at(19, 12, 0) }

	n, err := svc.CompleteEndedBookings(ctx)
	if err != nil {
		t.Fatalf("CompleteEndedBookings: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completed, got %d", n)
	}

	if b, _ := repo.GetBookingByID(ctx, early.ID); b.Status != StatusCompleted {
		t.Fatalf("early booking should be completed, got %s", b.Status)
	}
	if b, _ := repo.GetBookingByID(ctx, late.ID); b.Status != StatusConfirmed {
		t.Fatalf("late booking should stay confirmed, got %s", b.Status)
	}

	// completed bookings are no longer reported as busy
	busy, _ := svc.BusyIntervals(ctx, at(19, 0, 0))
	if len(busy) != 1 {
		t.Fatalf("only confirmed bookings are busy, got %d", len(busy))
	}
}
