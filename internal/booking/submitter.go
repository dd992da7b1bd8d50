package booking

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/schedule"
)

// Operation names carried by NetworkError.
const (
	OpServices = "fetch services"
	OpBusy     = "fetch busy slots"
	OpBook     = "submit booking"
)

// API is the booking server as seen by a client session.
type API interface {
	Services(ctx context.Context) (catalog.Catalog, error)
	BusyIntervals(ctx context.Context, date time.Time) ([]schedule.BusyInterval, error)
	Book(ctx context.Context, req Request) error
}

type Contact struct {
	Name  string
	Phone string
	Email string
}

// Request is the body of POST /api/book.
type Request struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	StartTime string `json:"start_time"`
}

// Confirmation holds the display values of a successful booking.
type Confirmation struct {
	Date        string
	Time        string
	ServiceName string
}

// Query encodes the confirmation as parameters for the success page.
func (c Confirmation) Query() url.Values {
	return url.Values{
		"date":    {c.Date},
		"time":    {c.Time},
		"service": {c.ServiceName},
	}
}

type Result struct {
	Request      Request
	Interval     schedule.BusyInterval
	Confirmation Confirmation
}

// Submitter turns a selection into a booking request and sends it once.
type Submitter struct {
	api    API
	logger *zap.Logger
}

func NewSubmitter(api API, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{api: api, logger: logger}
}

// Submit books service at the selected start on date. Missing inputs fail
// locally with a ValidationError before any request is made.
func (s *Submitter) Submit(ctx context.Context, date time.Time, sel *Selection, service *catalog.Service, contact Contact) (*Result, error) {
	if service == nil {
		return nil, invalid(ErrNoService)
	}
	if date.IsZero() {
		return nil, invalid(ErrNoDate)
	}
	if sel == nil {
		return nil, invalid(ErrNoSlot)
	}
	minutes, ok := sel.Start()
	if !ok {
		return nil, invalid(ErrNoSlot)
	}

	start := schedule.At(date, minutes)
	end := start.Add(time.Duration(service.Duration) * time.Minute)
	interval, err := schedule.NewBusyInterval(start, end)
	if err != nil {
		return nil, invalid(err)
	}

	req := Request{
		Name:      contact.Name,
		Phone:     contact.Phone,
		Email:     contact.Email,
		Service:   service.Key,
		StartTime: schedule.FormatStart(start),
	}

	if err := s.api.Book(ctx, req); err != nil {
		var conflict *ConflictError
		var netErr *NetworkError
		if !errors.As(err, &conflict) && !errors.As(err, &netErr) {
			err = &NetworkError{Op: OpBook, Err: err}
		}
		s.logger.Info("booking not accepted",
			zap.String("service", service.Key),
			zap.String("start_time", req.StartTime),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("booking accepted",
		zap.String("service", service.Key),
		zap.String("start_time", req.StartTime),
	)

	return &Result{
		Request:  req,
		Interval: interval,
		Confirmation: Confirmation{
			Date:        start.Format(schedule.DateLayout),
			Time:        schedule.FormatClock(minutes),
			ServiceName: service.Name,
		},
	}, nil
}
