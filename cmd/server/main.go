package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/silverscreen/movie-booking/internal/config"
	"github.com/silverscreen/movie-booking/internal/database"
	"github.com/silverscreen/movie-booking/internal/handler"
	"github.com/silverscreen/movie-booking/internal/logger"
	"github.com/silverscreen/movie-booking/internal/middleware"
	"github.com/silverscreen/movie-booking/internal/queue"
	"github.com/silverscreen/movie-booking/internal/repository"
	"github.com/silverscreen/movie-booking/internal/reservation"
	"github.com/silverscreen/movie-booking/internal/router"
	"github.com/silverscreen/movie-booking/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	theatres := repository.NewTheatreRepo(db)
	seatStore := repository.NewSeatStoreRepo(db)
	shows := repository.NewShowRepo(db, seatStore)
	bookings := repository.NewBookingRepo(db)

	engine := reservation.NewEngine(seatStore, bookings, reservation.Config{
		HoldTTL:            time.Duration(cfg.HoldTTLSeconds) * time.Second,
		MaxSeatsPerBooking: cfg.MaxSeatsPerBooking,
	}, log)

	// Repair any seats a crash left behind before serving traffic.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := engine.Reconcile(startupCtx); err != nil {
		log.WithError(err).Error("startup reconciliation failed")
	} else if n > 0 {
		log.WithField("repaired", n).Warn("startup reconciliation repaired seats")
	}
	cancel()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go engine.StartSweeper(sweepCtx, time.Duration(cfg.SweepIntervalSeconds)*time.Second)

	go func() {
		if err := queue.StartBookingConsumer(log); err != nil {
			log.WithError(err).Error("booking consumer stopped")
		}
	}()

	publish := func(ctx context.Context, event queue.BookingConfirmedEvent) error {
		return service.PublishBookingConfirmed(ctx, log, event)
	}

	authH := handler.NewAuthHandler(cfg, users, tokens)
	browseH := handler.NewBrowseHandler(movies, theatres, shows, engine)
	bookingH := handler.NewBookingHandler(engine, bookings, shows, publish, log)
	catalogH := handler.NewAdminCatalogHandler(movies, theatres)
	showH := handler.NewAdminShowHandler(shows, movies, theatres, bookings)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, browseH, cache)
	router.RegisterCustomer(e, bookingH, cfg.JWTSecret, ratelimit)
	router.RegisterAdmin(e, catalogH, showH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.WithField("addr", addr).WithField("env", cfg.Env).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
