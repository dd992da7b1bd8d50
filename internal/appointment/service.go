package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/config"
	redisclient "github.com/hackgods/slot-booking/internal/redis"
	"github.com/hackgods/slot-booking/internal/schedule"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingCanceled  = "BOOKING_CANCELED"
	EventBookingCompleted = "BOOKING_COMPLETED"
)

var (
	ErrUnknownService  = errors.New("unknown service")
	ErrMissingContact  = errors.New("name and phone are required")
	ErrWeekend         = errors.New("bookings are only possible on weekdays")
	ErrInPast          = errors.New("start time is in the past")
	ErrOutsideHours    = errors.New("booking is outside working hours")
	ErrSlotTaken       = errors.New("time range overlaps a confirmed booking")
	ErrDayBeingBooked  = errors.New("another booking for this day is in progress, please retry")
	ErrAlreadyCanceled = errors.New("booking is already canceled")
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	catalog catalog.Catalog
	workDay schedule.WorkDay
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locker redisclient.Locker, cat catalog.Catalog, cfg config.Config, logger *zap.Logger, opts ...Option) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:    repo,
		locker:  locker,
		catalog: cat,
		workDay: cfg.WorkDay,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() catalog.Catalog { return s.catalog }

func (s *Service) Location() *time.Location { return s.loc }

// Book validates the request and creates a confirmed booking. The overlap
// check and insert run under the Redis lock of the booking's day so two
// requests for the same day cannot both pass the check.
func (s *Service) Book(ctx context.Context, in BookInput) (*Booking, error) {
	svc, err := s.catalog.Lookup(in.Service)
	if err != nil {
		return nil, ErrUnknownService
	}

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, ErrMissingContact
	}

	start := schedule.InLocation(in.StartTime, s.loc)
	end := start.Add(time.Duration(svc.Duration) * time.Minute)

	if !schedule.IsWeekday(start) {
		return nil, ErrWeekend
	}
	if start.Before(s.now()) {
		return nil, ErrInPast
	}
	if start.Before(s.workDay.DayStart(start)) || end.After(s.workDay.DayEnd(start)) {
		return nil, ErrOutsideHours
	}

	var created *Booking

	err = s.locker.WithDayLock(ctx, start, func(lockCtx context.Context) error {
		existing, err := s.repo.FindOverlapping(lockCtx, start, end)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("check overlapping booking: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		b, err := s.repo.CreateBooking(lockCtx, Booking{
			Name:        strings.TrimSpace(in.Name),
			Phone:       strings.TrimSpace(in.Phone),
			Email:       strings.TrimSpace(in.Email),
			Service:     svc.Key,
			StartTime:   start,
			EndTime:     end,
			CancelToken: uuid.New(),
		})
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		created = b

		s.logEvent(lockCtx, b.ID, EventBookingCreated, map[string]any{
			"service":    svc.Key,
			"start_time": schedule.FormatTimestamp(start),
			"end_time":   schedule.FormatTimestamp(end),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayBeingBooked
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", created.ID),
		zap.String("service", created.Service),
		zap.String("start", schedule.FormatTimestamp(created.StartTime)),
	)

	return created, nil
}

// BusyIntervals returns the confirmed bookings as busy intervals. A zero day
// returns every confirmed booking, otherwise only those touching that day.
func (s *Service) BusyIntervals(ctx context.Context, day time.Time) ([]schedule.BusyInterval, error) {
	var from, to time.Time
	if !day.IsZero() {
		from = schedule.At(schedule.InLocation(day, s.loc), 0)
		to = from.AddDate(0, 0, 1)
	}

	bookings, err := s.repo.ListConfirmed(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}

	busy := make([]schedule.BusyInterval, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, b.Interval())
	}
	return busy, nil
}

func (s *Service) ListBookings(ctx context.Context) ([]Booking, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// CancelBooking cancels by id. Canceling an already canceled booking is a
// no-op that returns the booking unchanged.
func (s *Service) CancelBooking(ctx context.Context, id int64) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if b.Status == StatusCanceled {
		return b, nil
	}

	return s.cancel(ctx, b, "admin")
}

// CancelByToken cancels the booking owning the token from the confirmation
// link. An unknown token yields ErrBookingNotFound, a canceled booking
// ErrAlreadyCanceled.
func (s *Service) CancelByToken(ctx context.Context, token uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetBookingByCancelToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if b.Status == StatusCanceled {
		return nil, ErrAlreadyCanceled
	}

	return s.cancel(ctx, b, "customer")
}

func (s *Service) cancel(ctx context.Context, b *Booking, by string) (*Booking, error) {
	updated, err := s.repo.UpdateBookingStatus(ctx, b.ID, b.Status, StatusCanceled)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// status changed underneath us
			return nil, ErrAlreadyCanceled
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingCanceled, map[string]any{
		"canceled_by": by,
		"previous":    string(b.Status),
	})
	s.logger.Info("booking canceled", zap.Int64("booking_id", updated.ID), zap.String("by", by))

	return updated, nil
}

// CompleteEndedBookings is called by the housekeeper periodically. It marks
// confirmed bookings whose end time has passed as completed.
func (s *Service) CompleteEndedBookings(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	ended, err := s.repo.FindEndedConfirmed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find ended bookings: %w", err)
	}

	completed := 0
	for _, b := range ended {
		_, err := s.repo.UpdateBookingStatus(ctx, b.ID, StatusConfirmed, StatusCompleted)
		if err != nil {
			if !errors.Is(err, ErrBookingNotFound) {
				s.logger.Warn("failed to complete booking", zap.Int64("booking_id", b.ID), zap.Error(err))
			}
			continue
		}
		completed++
		s.logEvent(ctx, b.ID, EventBookingCompleted, map[string]any{
			"end_time": schedule.FormatTimestamp(b.EndTime),
		})
	}

	return completed, nil
}

func (s *Service) logEvent(ctx context.Context, bookingID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	id := bookingID

	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event", eventType),
			zap.Int64("booking_id", bookingID),
			zap.Error(err),
		)
	}
}
