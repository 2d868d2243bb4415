package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/healthtrip/config"
	"github.com/Domenick1991/healthtrip/internal/cache"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/notify"
	"github.com/Domenick1991/healthtrip/internal/rabbitmq"
	"github.com/Domenick1991/healthtrip/internal/repository"
	"github.com/Domenick1991/healthtrip/internal/repository/sqlite"
	"github.com/Domenick1991/healthtrip/internal/service/abtest"
	"github.com/Domenick1991/healthtrip/internal/service/booking"
	"github.com/Domenick1991/healthtrip/internal/service/flights"
	"github.com/Domenick1991/healthtrip/internal/service/personalize"
	"github.com/Domenick1991/healthtrip/internal/service/reminder"
	"github.com/Domenick1991/healthtrip/internal/service/seats"
	"github.com/Domenick1991/healthtrip/internal/service/timezone"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage holds the repositories of the configured driver.
type Storage struct {
	Flights   repository.FlightRepository
	Bookings  repository.BookingRepository
	Reminders repository.ReminderRepository
	close     func()
}

func (s *Storage) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

func OpenStorage(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Storage{
			Flights:   repository.NewFlightRepository(pool),
			Bookings:  repository.NewBookingRepository(pool),
			Reminders: repository.NewReminderRepository(pool),
			close:     pool.Close,
		}, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Storage{
			Flights:   store.Flights(),
			Bookings:  store.Bookings(),
			Reminders: store.Reminders(),
			close:     func() { _ = store.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// NewCache returns nil when no Redis address is configured.
func NewCache(cfg *config.Config) *cache.RedisCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
}

// NewSender builds the reminder delivery transport named by reminder.notifier.
// The returned close func releases the transport's connection.
func NewSender(cfg *config.Config, producer *kafka.Producer) (notify.Sender, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Reminder.Notifier {
	case config.NotifierLog:
		return notify.NewLogSender(), noop, nil
	case config.NotifierKafka:
		if producer == nil {
			return nil, noop, fmt.Errorf("kafka notifier needs brokers")
		}
		return notify.NewKafkaSender(producer, cfg.Kafka.NotificationsTopic), noop, nil
	case config.NotifierAMQP:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, noop, err
		}
		return notify.NewAMQPSender(publisher), publisher.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown notifier %q", cfg.Reminder.Notifier)
}

type Services struct {
	Seats     *seats.Controller
	Flights   *flights.FlightService
	Bookings  *booking.BookingService
	Reminders *reminder.Service
}

// NewServices wires the use cases. redisCache and producer may be nil.
func NewServices(cfg *config.Config, storage *Storage, redisCache *cache.RedisCache, producer *kafka.Producer, sender notify.Sender) *Services {
	var (
		seatOpts    []seats.Option
		flightCache flights.FlightCache
		events      booking.Producer
	)
	if redisCache != nil {
		seatOpts = append(seatOpts, seats.WithCache(redisCache))
		flightCache = redisCache
	}
	if producer != nil {
		events = producer
	}

	seatController := seats.NewController(storage.Flights, seatOpts...)
	bookingService := booking.NewBookingService(
		storage.Bookings,
		seatController,
		events,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Booking.ConfirmationTTL)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	reminderService := reminder.NewService(
		storage.Reminders,
		sender,
		timezone.NewResolver(cfg.Reminder.FallbackTimezone),
		personalize.NewRenderer(cfg.Reminder.DefaultLanguage),
		abtest.NewService(storage.Reminders, nil),
		cfg.Reminder,
	)

	return &Services{
		Seats:     seatController,
		Flights:   flights.NewFlightService(storage.Flights, flightCache),
		Bookings:  bookingService,
		Reminders: reminderService,
	}
}
