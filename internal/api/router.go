package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/appointment"
)

type RouterConfig struct {
	Service *appointment.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string

	AdminUser     string
	AdminPassword string

	BookRatePerSec float64
	BookRateBurst  int
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Booking endpoints
	r.Get("/api/services", servicesHandler(cfg.Service))
	r.Get("/api/slots", slotsHandler(cfg.Service))
	r.With(RateLimitMiddleware(cfg.BookRatePerSec, cfg.BookRateBurst)).
		Post("/api/book", bookHandler(cfg.Service))
	r.Get("/cancel/{token}", cancelByTokenHandler(cfg.Service))

	// Admin endpoints
	r.Post("/admin/login", adminLoginHandler(cfg.AdminUser, cfg.AdminPassword))
	r.Get("/api/admin/bookings", adminBookingsHandler(cfg.Service))
	r.Post("/api/admin/cancel/{id}", adminCancelHandler(cfg.Service))

	return r
}
