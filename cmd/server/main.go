package main // Entry point of the room booking API

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/config"
	"github.com/iliyamo/campus-room-booking/internal/database"
	"github.com/iliyamo/campus-room-booking/internal/handler"
	"github.com/iliyamo/campus-room-booking/internal/lock"
	"github.com/iliyamo/campus-room-booking/internal/logger"
	"github.com/iliyamo/campus-room-booking/internal/middleware"
	"github.com/iliyamo/campus-room-booking/internal/queue"
	"github.com/iliyamo/campus-room-booking/internal/repository"
	"github.com/iliyamo/campus-room-booking/internal/router"
	"github.com/iliyamo/campus-room-booking/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		mdb, err := database.OpenForMigrations(cfg)
		if err != nil {
			log.Fatal("open migration connection", zap.Error(err))
		}
		if err := database.RunMigrations(mdb, log); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		_ = mdb.Close()
	}

	// Redis is optional unless it backs the room lock.  Without it rate
	// limiting and the directory cache are disabled.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		if cfg.LockBackend == config.LockBackendRedis {
			log.Fatal("redis is required for LOCK_BACKEND=redis", zap.Error(err))
		}
		log.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var locker lock.Locker = lock.NewMemory()
	if cfg.LockBackend == config.LockBackendRedis {
		locker = lock.NewRedis(rdb, cfg.LockPrefix, cfg.LockTTL)
	}

	var events service.EventPublisher = queue.LogPublisher{Log: log}
	if cfg.AMQPURL != "" {
		pub, err := queue.NewPublisher(cfg.AMQPURL, cfg.EventsExchange, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, booking events go to the log only", zap.Error(err))
		} else {
			defer pub.Close()
			events = pub
		}
	}

	rooms := repository.NewRoomRepo(db)
	svc := service.NewBookingService(
		rooms,
		repository.NewBookingRepo(db),
		repository.NewBuildingAuthorizer(db),
		service.Options{
			StoreTimeout: cfg.StoreTimeout,
			Locker:       locker,
			Events:       events,
			Logger:       log,
		})

	e := newEcho(log)
	router.RegisterRoutes(e, db)
	router.RegisterAPI(e,
		handler.NewBookingHandler(svc, cfg.Location, log),
		handler.NewDirectoryHandler(rooms, log, cfg.StoreTimeout),
		apiOptions(cfg, rdb, log))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env),
			zap.String("lock_backend", cfg.LockBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func newEcho(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	return e
}

// apiOptions builds the optional Redis backed middleware.  Both fall back
// to pass-through when rdb is nil.
func apiOptions(cfg config.Config, rdb *redis.Client, log *zap.Logger) router.Options {
	return router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	}
}
