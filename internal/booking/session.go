package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/schedule"
)

const noticeChooseService = "Bitte zuerst einen Service wählen"

// View is what a renderer needs to draw the day: the slot grid with the
// current selection marked.
type View struct {
	Date       time.Time
	ServiceKey string
	Slots      []schedule.Candidate
	Notice     string
}

// Session owns the state of one booking flow. Every exported method is one
// user event and runs atomically with respect to the others.
type Session struct {
	mu sync.Mutex

	api       API
	submitter *Submitter
	eval      schedule.Evaluator
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger

	catalog   catalog.Catalog
	date      time.Time
	service   *catalog.Service
	busy      []schedule.BusyInterval
	grid      *schedule.Grid
	selection Selection
	notice    string
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Session) { s.loc = loc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func NewSession(api API, workDay schedule.WorkDay, opts ...Option) *Session {
	s := &Session{
		api:     api,
		eval:    schedule.NewEvaluator(workDay),
		loc:     time.Local,
		now:     time.Now,
		logger:  zap.NewNop(),
		catalog: catalog.Catalog{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.submitter = NewSubmitter(api, s.logger)
	return s
}

// Load fetches the service catalog. On failure the catalog is left empty.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.api.Services(ctx)
	if err != nil {
		s.setCatalog(catalog.Catalog{})
		return asNetworkError(OpServices, err)
	}
	s.setCatalog(c)
	return nil
}

// SetCatalog replaces the catalog snapshot and resets the flow.
func (s *Session) SetCatalog(c catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCatalog(c)
}

func (s *Session) setCatalog(c catalog.Catalog) {
	valid := make(map[string]catalog.Service, len(c))
	for k, svc := range c {
		if svc.Duration <= 0 {
			s.logger.Warn("dropping service with invalid duration",
				zap.String("service", k),
				zap.Int("duration", svc.Duration),
			)
			continue
		}
		valid[k] = svc
	}
	s.catalog = catalog.New(valid)
	s.service = nil
	s.selection.ServiceKey = ""
	s.resetGrid()
}

func (s *Session) Catalog() catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// SelectDate switches the day. Weekend days clear the date and the grid and
// never reach the server.
func (s *Session) SelectDate(ctx context.Context, date time.Time) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date.IsZero() {
		s.date = time.Time{}
		s.resetGrid()
		return s.view(), nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	if !schedule.IsWeekday(day) {
		s.date = time.Time{}
		s.resetGrid()
		s.notice = UserMessage(ErrWeekend)
		return s.view(), invalid(ErrWeekend)
	}

	s.date = day
	return s.render(ctx)
}

// SelectService switches the service and re-renders the day.
func (s *Session) SelectService(ctx context.Context, key string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := s.catalog.Lookup(key)
	if err != nil {
		return s.view(), invalid(ErrUnknownService)
	}
	s.service = &svc
	s.selection.ServiceKey = key
	return s.render(ctx)
}

// Render refetches the busy intervals of the current day and rebuilds the
// grid. The selection is cleared.
func (s *Session) Render(ctx context.Context) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render(ctx)
}

func (s *Session) render(ctx context.Context) (*View, error) {
	s.resetGrid()

	if s.date.IsZero() {
		return s.view(), nil
	}
	if s.service == nil {
		s.notice = noticeChooseService
		return s.view(), nil
	}

	busy, err := s.api.BusyIntervals(ctx, s.date)
	if err != nil {
		s.busy = nil
		s.logger.Warn("could not load busy intervals",
			zap.String("date", s.date.Format(schedule.DateLayout)),
			zap.Error(err),
		)
		err = asNetworkError(OpBusy, err)
		s.notice = UserMessage(err)
		return s.view(), err
	}

	s.replaceBusy(busy)
	return s.view(), nil
}

// ReplaceBusyIntervals swaps in a new busy snapshot and rebuilds the grid
// without a fetch.
func (s *Session) ReplaceBusyIntervals(busy []schedule.BusyInterval) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetGrid()
	s.replaceBusy(busy)
	return s.view()
}

func (s *Session) replaceBusy(busy []schedule.BusyInterval) {
	snapshot := make([]schedule.BusyInterval, len(busy))
	copy(snapshot, busy)
	s.busy = snapshot

	if s.date.IsZero() || s.service == nil {
		return
	}
	s.grid = s.eval.Grid(s.date, s.service.Duration, s.busy, s.now())
}

// ClickSlot selects the run starting at minutes on the current grid.
func (s *Session) ClickSlot(minutes int) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service == nil {
		return s.view(), invalid(ErrNoService)
	}
	if s.grid == nil {
		return s.view(), invalid(ErrNoDate)
	}
	if _, err := s.selection.Select(minutes, s.grid); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

// Clear drops the current selection.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// Selected returns the selected start in minutes after midnight.
func (s *Session) Selected() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Start()
}

func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Submit sends the booking. On success the new interval is added to the busy
// snapshot and the selection is cleared. On a server rejection the selection
// is kept so the user can pick again.
func (s *Session) Submit(ctx context.Context, contact Contact) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sel *Selection
	if _, ok := s.selection.Start(); ok {
		sel = &s.selection
	}

	res, err := s.submitter.Submit(ctx, s.date, sel, s.service, contact)
	if err != nil {
		return nil, err
	}

	busy := make([]schedule.BusyInterval, 0, len(s.busy)+1)
	busy = append(busy, s.busy...)
	busy = append(busy, res.Interval)
	s.resetGrid()
	s.replaceBusy(busy)

	return res, nil
}

func (s *Session) resetGrid() {
	s.grid = nil
	s.notice = ""
	s.selection.Clear()
}

func (s *Session) view() *View {
	v := &View{Date: s.date, Notice: s.notice}
	if s.service != nil {
		v.ServiceKey = s.service.Key
	}
	if s.grid != nil {
		v.Slots = s.grid.WithSelection(s.selection.Run())
	}
	return v
}

func asNetworkError(op string, err error) error {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}
