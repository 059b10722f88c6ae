package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/cache"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"github.com/Domenick1991/flightreserve/internal/notify"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/Domenick1991/flightreserve/internal/service/sweeper"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	log := logger.Init(cfg.Log.Level, cfg.Log.Format).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ContextWithLogger(ctx, log)

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	store := repository.NewStore(pool,
		repository.WithLockTimeout(cfg.Database.LockTimeout()),
		repository.WithStatementTimeout(cfg.Database.StatementTimeout()),
	)

	opts := []sweeper.Option{
		sweeper.WithInterval(cfg.Worker.SweepInterval()),
		sweeper.WithMetrics(m),
	}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SearchCacheTTL(), cfg.Booking.InstanceCacheTTLDuration())
		defer redisCache.Close()
		opts = append(opts, sweeper.WithLease(redisCache, cfg.Worker.SweepLease()))
	}

	var consumer *kafka.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts, sweeper.WithProducer(producer, cfg.Kafka.BookingEventsTopic))

		if cfg.Kafka.NotificationsTopic != "" {
			consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
			defer consumer.Close()
		}
	}

	if consumer != nil {
		location, err := time.LoadLocation(cfg.Booking.SearchTimeZone)
		if err != nil {
			logger.Fatal("load notification time zone", "zone", cfg.Booking.SearchTimeZone, "error", err)
		}
		sender := notify.NewSender(log, location)

		go func() {
			if err := consumer.Consume(ctx, kafka.BookingEventHandler(sender.Send)); err != nil {
				log.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	expirySweeper := sweeper.NewExpirySweeper(store, opts...)
	expirySweeper.Start(ctx)
	defer expirySweeper.Stop()

	metricsSrv := &http.Server{
		Addr:              cfg.Worker.MetricsAddress,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown metrics server", "error", err)
	}
}
