package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/apiclient"
	"github.com/hackgods/slot-booking/internal/booking"
	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/config"
	"github.com/hackgods/slot-booking/internal/logging"
	"github.com/hackgods/slot-booking/internal/schedule"
)

type SimConfig struct {
	Duration    time.Duration
	Workers     int
	Days        int
	BrowseRatio float64

	Base config.Config
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking OperationMetrics
	Browse  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *apiclient.Client
	days    []time.Time
	logger  *zap.Logger
	metrics Metrics

	// first rejection detail per conflict kind, for the report
	conflicts sync.Map
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Base.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("simulator starting",
		zap.String("api", cfg.Base.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Int("days", cfg.Days),
		zap.Float64("browse_ratio", cfg.BrowseRatio),
	)

	client := apiclient.New(cfg.Base.APIBaseURL, cfg.Base.RequestTimeout, apiclient.WithLocation(cfg.Base.Location))
	tomorrow := schedule.At(time.Now().In(cfg.Base.Location), 0).AddDate(0, 0, 1)

	sim := &Simulator{
		config: cfg,
		client: client,
		days:   upcomingWeekdays(tomorrow, cfg.Days),
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()

	if err := sim.CheckConsistency(context.Background()); err != nil {
		logger.Error("consistency check failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (SimConfig, error) {
	base, err := config.LoadClient()
	if err != nil {
		return SimConfig{}, err
	}

	cfg := SimConfig{
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		Days:        getInt("SIM_DAYS", 3),
		BrowseRatio: getFloat("SIM_BROWSE_RATIO", 0.3),
		Base:        base,
	}

	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return cfg, fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return cfg, fmt.Errorf("SIM_DAYS must be > 0")
	}
	return cfg, nil
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

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

// worker plays one customer after another, each with its own session.
func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(0)
	logger := s.logger.With(zap.Int("worker", workerID))

	session := booking.NewSession(s.client, s.config.Base.WorkDay,
		booking.WithLocation(s.config.Base.Location),
		booking.WithLogger(logger),
	)
	if err := session.Load(ctx); err != nil {
		logger.Error("could not load services", zap.Error(err))
		return
	}
	keys := session.Catalog().Keys()
	if len(keys) == 0 {
		logger.Error("service catalog is empty")
		return
	}

	for ctx.Err() == nil {
		key := keys[faker.Number(0, len(keys)-1)]
		day := s.days[faker.Number(0, len(s.days)-1)]

		if _, err := session.SelectService(ctx, key); err != nil {
			continue
		}

		start := time.Now()
		view, err := session.SelectDate(ctx, day)
		if ctx.Err() != nil {
			return
		}
		s.metrics.Browse.Record(time.Since(start), err == nil, false)
		if err != nil {
			continue
		}

		if faker.Float64() < s.config.BrowseRatio {
			continue
		}

		free := freeSlots(view)
		if len(free) == 0 {
			continue
		}
		if _, err := session.ClickSlot(free[faker.Number(0, len(free)-1)]); err != nil {
			continue
		}

		contact := booking.Contact{Name: faker.Name(), Phone: faker.Phone(), Email: faker.Email()}

		start = time.Now()
		_, err = session.Submit(ctx, contact)
		if ctx.Err() != nil {
			return
		}
		latency := time.Since(start)

		var conflict *booking.ConflictError
		switch {
		case err == nil:
			s.metrics.Booking.Record(latency, true, false)
		case errors.As(err, &conflict):
			s.metrics.Booking.Record(latency, false, true)
			s.conflicts.LoadOrStore(conflict.Detail, conflict.Status)
		default:
			s.metrics.Booking.Record(latency, false, false)
			logger.Warn("booking failed", zap.String("message", booking.UserMessage(err)), zap.Error(err))
		}
	}
}

func freeSlots(view *booking.View) []int {
	var out []int
	for _, c := range view.Slots {
		if c.Status == schedule.SlotFree {
			out = append(out, c.Minutes)
		}
	}
	return out
}

// CheckConsistency logs in as admin and verifies that no two confirmed
// bookings overlap. It is skipped when no admin password is configured.
func (s *Simulator) CheckConsistency(ctx context.Context) error {
	if s.config.Base.AdminPassword == "" {
		s.logger.Info("ADMIN_PASSWORD not set, skipping consistency check")
		return nil
	}

	if err := s.client.AdminLogin(ctx, s.config.Base.AdminUser, s.config.Base.AdminPassword); err != nil {
		return fmt.Errorf("admin login: %w", err)
	}

	cat, err := s.client.Services(ctx)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}
	rows, err := s.client.AdminBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	busy, err := confirmedIntervals(cat, rows, s.config.Base.Location)
	if err != nil {
		return err
	}

	for i := 1; i < len(busy); i++ {
		if schedule.Overlaps(busy[i].Start, busy[i].End, busy[i-1]) {
			return fmt.Errorf("bookings overlap: %s-%s and %s-%s",
				schedule.FormatTimestamp(busy[i-1].Start), schedule.FormatTimestamp(busy[i-1].End),
				schedule.FormatTimestamp(busy[i].Start), schedule.FormatTimestamp(busy[i].End))
		}
	}

	s.logger.Info("consistency check passed", zap.Int("confirmed", len(busy)))
	return nil
}

// confirmedIntervals rebuilds the busy intervals from the admin listing, which
// carries service names rather than keys.
func confirmedIntervals(cat catalog.Catalog, rows []apiclient.AdminBooking, loc *time.Location) ([]schedule.BusyInterval, error) {
	durations := make(map[string]int, len(cat))
	for _, svc := range cat {
		durations[svc.Name] = svc.Duration
	}

	var busy []schedule.BusyInterval
	for _, row := range rows {
		if row.Status != "confirmed" {
			continue
		}
		d, ok := durations[row.Service]
		if !ok {
			continue
		}
		start, err := schedule.ParseLocal(row.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("booking %d: %w", row.ID, err)
		}
		busy = append(busy, schedule.BusyInterval{Start: start, End: start.Add(time.Duration(d) * time.Minute)})
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Days: %d\n", len(s.days))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Browse (busy intervals)", &s.metrics.Browse)

	s.conflicts.Range(func(detail, status any) bool {
		fmt.Printf("Rejected with %v: %q\n", status, detail)
		return true
	})
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
