package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	GRPC      GRPCConfig      `yaml:"grpc" envPrefix:"GRPC_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DATABASE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq" envPrefix:"RABBITMQ_"`
	Booking   BookingConfig   `yaml:"booking" envPrefix:"BOOKING_"`
	Worker    WorkerConfig    `yaml:"worker" envPrefix:"WORKER_"`
	Reminder  ReminderConfig  `yaml:"reminder" envPrefix:"REMINDER_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"OTEL_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string `yaml:"driver" env:"DRIVER"`
	Host       string `yaml:"host" env:"HOST"`
	Port       int    `yaml:"port" env:"PORT"`
	User       string `yaml:"user" env:"USER"`
	Password   string `yaml:"password" env:"PASSWORD"`
	Name       string `yaml:"name" env:"NAME"`
	SSLMode    string `yaml:"ssl_mode" env:"SSL_MODE"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type KafkaConfig struct {
	Brokers               []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	BookingTopic          string   `yaml:"booking_topic" env:"BOOKING_TOPIC"`
	NotificationsTopic    string   `yaml:"notifications_topic" env:"NOTIFICATIONS_TOPIC"`
	ReminderTriggersTopic string   `yaml:"reminder_triggers_topic" env:"REMINDER_TRIGGERS_TOPIC"`
	GroupID               string   `yaml:"group_id" env:"GROUP_ID"`
	PublishAttempts       int      `yaml:"publish_attempts" env:"PUBLISH_ATTEMPTS"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url" env:"URL"`
	Exchange string `yaml:"exchange" env:"EXCHANGE"`
}

type BookingConfig struct {
	HoldTTLMinutes  int `yaml:"hold_ttl_minutes" env:"HOLD_TTL_MINUTES"`
	FlightsCacheTTL int `yaml:"flights_cache_ttl_seconds" env:"FLIGHTS_CACHE_TTL_SECONDS"`
	ConfirmationTTL int `yaml:"confirmation_ttl_minutes" env:"CONFIRMATION_TTL_MINUTES"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes" env:"EXPIRATION_SWEEP_MINUTES"`
}

const (
	NotifierLog   = "log"
	NotifierKafka = "kafka"
	NotifierAMQP  = "amqp"
)

// ReminderConfig drives the reminder scheduling engine. Durations are whole
// units so the YAML stays readable.
type ReminderConfig struct {
	TickIntervalSeconds   int    `yaml:"tick_interval_seconds" env:"TICK_INTERVAL_SECONDS"`
	MaxRetries            int    `yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelayMinutes     int    `yaml:"retry_delay_minutes" env:"RETRY_DELAY_MINUTES"`
	ClaimLeaseSeconds     int    `yaml:"claim_lease_seconds" env:"CLAIM_LEASE_SECONDS"`
	BatchSize             int    `yaml:"batch_size" env:"BATCH_SIZE"`
	DefaultLanguage       string `yaml:"default_language" env:"DEFAULT_LANGUAGE"`
	FallbackTimezone      string `yaml:"fallback_timezone" env:"FALLBACK_TIMEZONE"`
	QuotePendingDelayDays int    `yaml:"quote_pending_delay_days" env:"QUOTE_PENDING_DELAY_DAYS"`
	QuoteExpiringLeadDays int    `yaml:"quote_expiring_lead_days" env:"QUOTE_EXPIRING_LEAD_DAYS"`
	LeadFollowUpDays      int    `yaml:"lead_follow_up_days" env:"LEAD_FOLLOW_UP_DAYS"`
	Notifier              string `yaml:"notifier" env:"NOTIFIER"`
	LockKey               string `yaml:"lock_key" env:"LOCK_KEY"`
}

func (r ReminderConfig) TickInterval() time.Duration {
	return time.Duration(r.TickIntervalSeconds) * time.Second
}

func (r ReminderConfig) RetryDelay() time.Duration {
	return time.Duration(r.RetryDelayMinutes) * time.Minute
}

func (r ReminderConfig) ClaimLease() time.Duration {
	return time.Duration(r.ClaimLeaseSeconds) * time.Second
}

type TelemetryConfig struct {
	Endpoint    string `yaml:"otlp_endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// LoadConfig reads the YAML file, applies environment overrides and fills
// defaults for anything left empty.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Parse decodes YAML without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "healthtrip.db"
	}
	if c.Kafka.ReminderTriggersTopic == "" {
		c.Kafka.ReminderTriggersTopic = "reminder_triggers"
	}
	if c.Kafka.PublishAttempts == 0 {
		c.Kafka.PublishAttempts = 3
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "notifications"
	}
	if c.Booking.HoldTTLMinutes == 0 {
		c.Booking.HoldTTLMinutes = 15
	}
	if c.Worker.ExpirationSweepMinutes == 0 {
		c.Worker.ExpirationSweepMinutes = 1
	}

	r := &c.Reminder
	if r.TickIntervalSeconds == 0 {
		r.TickIntervalSeconds = 300
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 3
	}
	if r.RetryDelayMinutes == 0 {
		r.RetryDelayMinutes = 60
	}
	if r.ClaimLeaseSeconds == 0 {
		r.ClaimLeaseSeconds = 120
	}
	if r.BatchSize == 0 {
		r.BatchSize = 100
	}
	if r.DefaultLanguage == "" {
		r.DefaultLanguage = "tr"
	}
	if r.FallbackTimezone == "" {
		r.FallbackTimezone = "UTC"
	}
	if r.QuotePendingDelayDays == 0 {
		r.QuotePendingDelayDays = 2
	}
	if r.QuoteExpiringLeadDays == 0 {
		r.QuoteExpiringLeadDays = 1
	}
	if r.LeadFollowUpDays == 0 {
		r.LeadFollowUpDays = 3
	}
	if r.Notifier == "" {
		r.Notifier = NotifierLog
	}
	if r.LockKey == "" {
		r.LockKey = "lock:reminders:tick"
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "healthtrip"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
