package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process memory. It backs the api-server
// in -inmemory mode and the handler tests.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]Booking
	events   []EventLog
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:   1,
		bookings: make(map[int64]Booking),
		now:      time.Now,
	}
}

func (r *MemoryRepository) GetBookingByID(_ context.Context, id int64) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) GetBookingByCancelToken(_ context.Context, token uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.CancelToken == token {
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *MemoryRepository) ListConfirmed(_ context.Context, from, to time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Booking
	for _, b := range r.sorted() {
		if b.Status != StatusConfirmed {
			continue
		}
		if !from.IsZero() && !b.EndTime.After(from) {
			continue
		}
		if !to.IsZero() && !b.StartTime.Before(to) {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (r *MemoryRepository) FindOverlapping(_ context.Context, start, end time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.sorted() {
		if b.Status == StatusConfirmed && b.StartTime.Before(end) && b.EndTime.After(start) {
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *MemoryRepository) ListBookings(_ context.Context) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.sorted()
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (r *MemoryRepository) CreateBooking(_ context.Context, b Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.CancelToken == uuid.Nil {
		b.CancelToken = uuid.New()
	}
	now := r.now()
	b.ID = r.nextID
	b.Status = StatusConfirmed
	b.CreatedAt = now
	b.UpdatedAt = now
	r.nextID++

	r.bookings[b.ID] = b
	return &b, nil
}

func (r *MemoryRepository) UpdateBookingStatus(_ context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, ErrBookingNotFound
	}
	b.Status = to
	b.UpdatedAt = r.now()
	r.bookings[id] = b
	return &b, nil
}

func (r *MemoryRepository) FindEndedConfirmed(_ context.Context, now time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Booking
	for _, b := range r.sorted() {
		if b.Status == StatusConfirmed && !b.EndTime.After(now) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]EventLog(nil), r.events...)
}

// sorted returns the bookings by start time. Callers hold mu.
func (r *MemoryRepository) sorted() []Booking {
	result := make([]Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}
