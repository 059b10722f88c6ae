package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/auth"
	"github.com/Domenick1991/flightreserve/internal/bootstrap"
	"github.com/Domenick1991/flightreserve/internal/cache"
	"github.com/Domenick1991/flightreserve/internal/database"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/Domenick1991/flightreserve/internal/service/booking"
	"github.com/Domenick1991/flightreserve/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.URL("pgx5")); err != nil {
			logger.Fatal("migrate database", "error", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	searchLocation, err := time.LoadLocation(cfg.Booking.SearchTimeZone)
	if err != nil {
		logger.Fatal("load search time zone", "zone", cfg.Booking.SearchTimeZone, "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := repository.NewStore(pool,
		repository.WithLockTimeout(cfg.Database.LockTimeout()),
		repository.WithStatementTimeout(cfg.Database.StatementTimeout()),
	)

	checks := map[string]bootstrap.HealthCheck{"postgres": pool.Ping}

	var (
		searchCache   booking.Cache
		instanceCache flights.InstanceCache
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SearchCacheTTL(), cfg.Booking.InstanceCacheTTLDuration())
		defer redisCache.Close()
		searchCache, instanceCache = redisCache, redisCache
		checks["redis"] = redisCache.Ping
	} else {
		log.Warn("redis address not configured, caching disabled")
	}

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		if err := kafkaProducer.CheckConnection(ctx); err != nil {
			log.Warn("kafka is not reachable at startup", "error", err)
		}
		producer = kafkaProducer
	} else {
		log.Warn("kafka brokers not configured, booking events disabled")
	}

	flightService := flights.NewFlightService(store.Flights(), store.Seats(), instanceCache)
	bookingService := booking.NewBookingService(
		store,
		searchCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithPNRAttempts(cfg.Booking.PNRAttempts),
		booking.WithSettlementCurrency(cfg.Booking.SettlementCurrency),
		booking.WithSearchLocation(searchLocation),
		booking.WithMetrics(m),
	)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret must be set")
	}

	err = bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Flights:  flightService,
		Bookings: bookingService,
		Verifier: auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Gatherer: registry,
		Checks:   checks,
	})
	if err != nil {
		logger.Fatal("server error", "error", err)
	}
	log.Info("server stopped")
}
