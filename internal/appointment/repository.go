package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetBookingByID(ctx context.Context, id int64) (*Booking, error)
	GetBookingByCancelToken(ctx context.Context, token uuid.UUID) (*Booking, error)

	// Busy data: confirmed bookings intersecting [from, to). Zero bounds are open.
	ListConfirmed(ctx context.Context, from, to time.Time) ([]Booking, error)
	FindOverlapping(ctx context.Context, start, end time.Time) (*Booking, error)

	// Admin listing, newest start first
	ListBookings(ctx context.Context) ([]Booking, error)

	// Creation and updates
	CreateBooking(ctx context.Context, b Booking) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error)

	// Housekeeper
	FindEndedConfirmed(ctx context.Context, now time.Time) ([]Booking, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
