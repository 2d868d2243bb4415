package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/healthtrip/config"
	"github.com/Domenick1991/healthtrip/internal/bootstrap"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/service/booking"
	"github.com/Domenick1991/healthtrip/internal/service/reminder"
	"github.com/Domenick1991/healthtrip/internal/telemetry"
	"github.com/Domenick1991/healthtrip/internal/trigger"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	log := logger.With("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer storage.Close()

	redisCache := bootstrap.NewCache(cfg)
	if redisCache != nil {
		defer redisCache.Close()
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, kafka.WithAttempts(cfg.Kafka.PublishAttempts))
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn().Err(err).Msg("kafka unreachable, events will be retried per publish")
		}
	}

	sender, closeSender, err := bootstrap.NewSender(cfg, producer)
	if err != nil {
		log.Fatal().Err(err).Msg("build notifier")
	}
	defer func() { _ = closeSender() }()

	services := bootstrap.NewServices(cfg, storage, redisCache, producer, sender)

	var schedulerOpts []reminder.SchedulerOption
	if redisCache != nil {
		schedulerOpts = append(schedulerOpts, reminder.WithLocker(redisCache, cfg.Reminder.LockKey))
	}
	scheduler := reminder.NewScheduler(services.Reminders, cfg.Reminder.TickInterval(), schedulerOpts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(ctx)
	})
	g.Go(func() error {
		return expireBookings(ctx, services.Bookings, time.Duration(cfg.Worker.ExpirationSweepMinutes)*time.Minute)
	})
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ReminderTriggersTopic)
		defer consumer.Close()
		handler := trigger.NewHandler(services.Reminders, storage.Reminders)
		g.Go(func() error {
			return consumer.Consume(ctx, handler.HandleMessage)
		})
	} else {
		log.Info().Msg("no kafka brokers configured, reminder trigger consumer disabled")
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("worker stopped")
		return
	}
	log.Info().Msg("worker stopped")
}

func expireBookings(ctx context.Context, bookings booking.BookingUseCase, every time.Duration) error {
	log := logger.With("booking-expiry")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := bookings.ExpirePendingBookings(ctx); err != nil {
				log.Error().Err(err).Msg("expire bookings")
			}
		}
	}
}
