package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/slot-booking/internal/schedule"
)

const bookingColumns = `id, name, phone, email, service, start_time, end_time, status, cancel_token, created_at, updated_at`

// PgRepository stores bookings in PostgreSQL. start_time and end_time are
// timestamp without time zone holding the business wall clock.
type PgRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewPgRepository(pool *pgxpool.Pool, loc *time.Location) *PgRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PgRepository{pool: pool, loc: loc}
}

// Helpers

func (r *PgRepository) scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Phone,
		&b.Email,
		&b.Service,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CancelToken,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.StartTime = schedule.InLocation(b.StartTime, r.loc)
	b.EndTime = schedule.InLocation(b.EndTime, r.loc)
	return &b, nil
}

func (r *PgRepository) scanBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// wall drops the zone of t so it is stored as a naive timestamp.
func wall(t time.Time) time.Time {
	return schedule.InLocation(t, time.UTC)
}

func nullableWall(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	w := wall(t)
	return &w
}

// Interface methods

func (r *PgRepository) GetBookingByID(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return r.scanBooking(row)
}

func (r *PgRepository) GetBookingByCancelToken(ctx context.Context, token uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE cancel_token = $1
	`, token)
	return r.scanBooking(row)
}

func (r *PgRepository) ListConfirmed(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND ($1::timestamp IS NULL OR end_time > $1)
		  AND ($2::timestamp IS NULL OR start_time < $2)
		ORDER BY start_time
	`, nullableWall(from), nullableWall(to))
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	return r.scanBookings(rows)
}

func (r *PgRepository) FindOverlapping(ctx context.Context, start, end time.Time) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND start_time < $2
		  AND end_time > $1
		ORDER BY start_time
		LIMIT 1
	`, wall(start), wall(end))
	return r.scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return r.scanBookings(rows)
}

func (r *PgRepository) CreateBooking(ctx context.Context, b Booking) (*Booking, error) {
	if b.CancelToken == uuid.Nil {
		b.CancelToken = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (name, phone, email, service, start_time, end_time, status, cancel_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'confirmed', $7, now(), now())
		RETURNING `+bookingColumns,
		b.Name, b.Phone, b.Email, b.Service, wall(b.StartTime), wall(b.EndTime), b.CancelToken)

	return r.scanBooking(row)
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns,
		id, to, from)

	return r.scanBooking(row)
}

func (r *PgRepository) FindEndedConfirmed(ctx context.Context, now time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND end_time <= $1
	`, wall(now))
	if err != nil {
		return nil, fmt.Errorf("find ended bookings: %w", err)
	}
	return r.scanBookings(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
