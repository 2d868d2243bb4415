package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/healthtrip/api"
	"github.com/Domenick1991/healthtrip/config"
	"github.com/Domenick1991/healthtrip/internal/bootstrap"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
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
	log := logger.With("app")

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
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, cache calls will fail open")
		}
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

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(
		api.NewFlightHandler(services.Flights, services.Seats),
		api.NewBookingHandler(services.Bookings),
		api.NewReminderHandler(services.Reminders),
	)

	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
