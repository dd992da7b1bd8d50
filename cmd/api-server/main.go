package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/api"
	"github.com/hackgods/slot-booking/internal/appointment"
	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/config"
	"github.com/hackgods/slot-booking/internal/db"
	"github.com/hackgods/slot-booking/internal/logging"
	redisclient "github.com/hackgods/slot-booking/internal/redis"
)

var version = "dev"

func main() {
	inMemory := flag.Bool("inmemory", false, "keep bookings in memory and lock days in process (no Postgres or Redis)")
	flag.Parse()

	var (
		cfg config.Config
		err error
	)
	if *inMemory {
		cfg, err = config.LoadClient()
	} else {
		cfg, err = config.LoadServer()
	}
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version),
		zap.Bool("inmemory", *inMemory),
		zap.String("business_tz", cfg.Location.String()),
	)

	cat := catalog.Default()
	if err := cat.Validate(); err != nil {
		logger.Fatal("invalid service catalog", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   appointment.Repository
		locker redisclient.Locker
		pgPool *pgxpool.Pool
		rdb    *redis.Client
	)

	if *inMemory {
		repo = appointment.NewMemoryRepository()
		locker = redisclient.NewLocalDayLocker()
		logger.Warn("running in memory, bookings are lost on restart")
	} else {
		// Connect Postgres
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 30*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN, logger)
		if err == nil {
			err = db.Migrate(pgCtx, pgPool)
		}
		cancelPg()
		if err != nil {
			logger.Fatal("postgres setup error", zap.Error(err))
		}
		defer pgPool.Close()
		logger.Info("connected to Postgres")

		// Connect Redis
		rdb, err = redisclient.Connect(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

		repo = appointment.NewPgRepository(pgPool, cfg.Location)
		locker = redisclient.NewRedisDayLocker(rdb, cfg.LockTTL)
	}

	svc := appointment.NewService(repo, locker, cat, cfg, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		PgPool:         pgPool,
		Redis:          rdb,
		Logger:         logger,
		Env:            cfg.Env,
		Version:        version,
		AdminUser:      cfg.AdminUser,
		AdminPassword:  cfg.AdminPassword,
		BookRatePerSec: cfg.BookRatePerSec,
		BookRateBurst:  cfg.BookRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("api-server stopped")
}
