package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/config"
	"github.com/hackgods/slot-booking/internal/db"
	"github.com/hackgods/slot-booking/internal/logging"
	"github.com/hackgods/slot-booking/internal/schedule"
)

func main() {
	days := flag.Int("days", 10, "number of upcoming weekdays to fill")
	fill := flag.Float64("fill", 0.4, "probability that a free grid position gets booked")
	cancelRate := flag.Float64("cancel", 0.1, "share of seeded bookings that are canceled")
	flag.Parse()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	s := seeder{
		pool:       pool,
		catalog:    catalog.Default(),
		workDay:    cfg.WorkDay,
		fill:       *fill,
		cancelRate: *cancelRate,
		logger:     logger,
	}

	tomorrow := schedule.At(time.Now().In(cfg.Location), 0).AddDate(0, 0, 1)
	total := 0
	for _, day := range upcomingWeekdays(tomorrow, *days) {
		n, err := s.seedDay(ctx, day)
		if err != nil {
			logger.Fatal("seed day", zap.String("date", day.Format(schedule.DateLayout)), zap.Error(err))
		}
		total += n
	}

	logger.Info("seed complete", zap.Int("bookings", total), zap.Int("days", *days))
}

type seeder struct {
	pool       *pgxpool.Pool
	catalog    catalog.Catalog
	workDay    schedule.WorkDay
	fill       float64
	cancelRate float64
	logger     *zap.Logger
}

func upcomingWeekdays(from time.Time, n int) []time.Time {
	var out []time.Time
	for d := from; len(out) < n; d = d.AddDate(0, 0, 1) {
		if schedule.IsWeekday(d) {
			out = append(out, d)
		}
	}
	return out
}

// seedDay walks the grid of day and drops random services into it. A booked
// service moves the cursor past its end, so confirmed bookings never overlap.
func (s *seeder) seedDay(ctx context.Context, day time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// reseeding a day starts over
	dayStart := schedule.At(day, 0)
	if _, err := tx.Exec(ctx, `
		DELETE FROM bookings WHERE start_time >= $1 AND start_time < $2
	`, wall(dayStart), wall(dayStart.AddDate(0, 0, 1))); err != nil {
		return 0, err
	}

	keys := s.catalog.Keys()
	count := 0

	for m := s.workDay.StartMinutes; m+s.workDay.StepMinutes <= s.workDay.EndMinutes; {
		svc := s.catalog[keys[gofakeit.Number(0, len(keys)-1)]]
		if m+svc.Duration > s.workDay.EndMinutes || gofakeit.Float64() >= s.fill {
			m += s.workDay.StepMinutes
			continue
		}

		start := schedule.At(day, m)
		end := start.Add(time.Duration(svc.Duration) * time.Minute)
		status := "confirmed"
		if gofakeit.Float64() < s.cancelRate {
			status = "canceled"
		}

		if err := insertBooking(ctx, tx, svc.Key, start, end, status); err != nil {
			return 0, err
		}
		count++

		// keep the cursor on the grid
		m += (svc.Duration + s.workDay.StepMinutes - 1) / s.workDay.StepMinutes * s.workDay.StepMinutes
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.logger.Info("day seeded", zap.String("date", day.Format(schedule.DateLayout)), zap.Int("bookings", count))
	return count, nil
}

func insertBooking(ctx context.Context, tx pgx.Tx, service string, start, end time.Time, status string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (name, phone, email, service, start_time, end_time, status, cancel_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, gofakeit.Name(), gofakeit.Phone(), gofakeit.Email(), service, wall(start), wall(end), status, uuid.New())
	return err
}

func wall(t time.Time) time.Time {
	return schedule.InLocation(t, time.UTC)
}
