package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/slot-booking/internal/schedule"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCanceled  BookingStatus = "canceled"
	StatusCompleted BookingStatus = "completed"
)

// Booking is a reserved time range for one service. Start and end are naive
// local times in the business location.
type Booking struct {
	ID          int64
	Name        string
	Phone       string
	Email       string
	Service     string
	StartTime   time.Time
	EndTime     time.Time
	Status      BookingStatus
	CancelToken uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b Booking) Interval() schedule.BusyInterval {
	return schedule.BusyInterval{Start: b.StartTime, End: b.EndTime}
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *int64
	Payload   []byte
	CreatedAt time.Time
}

// BookInput is a booking request as received by the API.
type BookInput struct {
	Name      string
	Phone     string
	Email     string
	Service   string
	StartTime time.Time
}
