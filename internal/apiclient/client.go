package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/slot-booking/internal/booking"
	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/schedule"
)

const (
	opAdminLogin    = "admin login"
	opAdminBookings = "admin bookings"
	opAdminCancel   = "admin cancel"

	maxErrorBody = 4 << 10
)

var (
	ErrUnauthorized    = errors.New("admin credentials rejected")
	ErrBookingNotFound = errors.New("booking not found")
)

// Client talks to the booking API. It satisfies booking.API.
type Client struct {
	baseURL string
	http    *http.Client
	loc     *time.Location
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLocation sets the business location naive timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// New returns a client for baseURL. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ booking.API = (*Client)(nil)

// Services fetches GET /api/services.
func (c *Client) Services(ctx context.Context) (catalog.Catalog, error) {
	var services map[string]catalog.Service
	if err := c.getJSON(ctx, booking.OpServices, "/api/services", &services); err != nil {
		return nil, err
	}
	return catalog.New(services), nil
}

type slotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BusyIntervals fetches GET /api/slots?date=YYYY-MM-DD. The server may return
// intervals of other days too; they never overlap the requested day's slots.
func (c *Client) BusyIntervals(ctx context.Context, date time.Time) ([]schedule.BusyInterval, error) {
	path := "/api/slots"
	if !date.IsZero() {
		path += "?" + url.Values{"date": {date.Format(schedule.DateLayout)}}.Encode()
	}

	var slots []slotDTO
	if err := c.getJSON(ctx, booking.OpBusy, path, &slots); err != nil {
		return nil, err
	}

	busy := make([]schedule.BusyInterval, 0, len(slots))
	for i, s := range slots {
		b, err := schedule.ParseBusyInterval(s.StartTime, s.EndTime, c.loc)
		if err != nil {
			return nil, &booking.NetworkError{Op: booking.OpBusy, Err: fmt.Errorf("slot %d: %w", i, err)}
		}
		busy = append(busy, b)
	}
	return busy, nil
}

// Book posts the request once. A 4xx answer is a ConflictError carrying the
// server's detail; anything else that is not 2xx is a NetworkError.
func (c *Client) Book(ctx context.Context, req booking.Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return &booking.NetworkError{Op: booking.OpBook, Err: err}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/book", "application/json", bytes.NewReader(body))
	if err != nil {
		return &booking.NetworkError{Op: booking.OpBook, Err: err}
	}
	defer resp.Body.Close()

	if isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	detail := readDetail(resp)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &booking.ConflictError{Status: resp.StatusCode, Detail: detail}
	}
	return &booking.NetworkError{Op: booking.OpBook, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, detail)}
}

// AdminBooking is one row of GET /api/admin/bookings.
type AdminBooking struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Start   string `json:"start"`
	Status  string `json:"status"`
}

// AdminLogin posts the form-encoded credentials to /admin/login.
func (c *Client) AdminLogin(ctx context.Context, user, password string) error {
	form := url.Values{"user": {user}, "password": {password}}
	resp, err := c.do(ctx, http.MethodPost, "/admin/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return &booking.NetworkError{Op: opAdminLogin, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isSuccess(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return &booking.NetworkError{Op: opAdminLogin, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, readDetail(resp))}
}

func (c *Client) AdminBookings(ctx context.Context) ([]AdminBooking, error) {
	var out []AdminBooking
	if err := c.getJSON(ctx, opAdminBookings, "/api/admin/bookings", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminCancel(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/admin/cancel/"+strconv.FormatInt(id, 10), "", nil)
	if err != nil {
		return &booking.NetworkError{Op: opAdminCancel, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isSuccess(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	return &booking.NetworkError{Op: opAdminCancel, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, readDetail(resp))}
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return &booking.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return &booking.NetworkError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, readDetail(resp))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &booking.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// readDetail extracts {"detail": ...} from an error body. Non-string details
// are returned as raw JSON, unparseable bodies as trimmed text.
func readDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}
	return string(body.Detail)
}
