package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers  []string
	writer   messageWriter
	attempts int
	backoff  time.Duration
	now      func() time.Time
}

type ProducerOption func(*Producer)

// WithAttempts bounds how many times Publish writes a message before giving up.
func WithAttempts(n int) ProducerOption {
	return func(p *Producer) {
		if n > 0 {
			p.attempts = n
		}
	}
}

func NewProducer(brokers []string, opts ...ProducerOption) *Producer {
	p := &Producer{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes payload as JSON under key. Messages with the same key land
// on the same partition, so events of one booking or reminder stay ordered.
// The caller's trace context travels in the message headers.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  p.now(),
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &message})

	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * p.backoff):
			}
		}
		if lastErr = p.writer.WriteMessages(ctx, message); lastErr == nil {
			logger.Log.Debug().Str("topic", topic).Str("key", key).Int("attempt", i+1).Msg("published to kafka")
			return nil
		}
		logger.Log.Warn().Err(lastErr).Str("topic", topic).Int("attempt", i+1).Msg("kafka publish failed")
	}
	return fmt.Errorf("publish to %s after %d attempts: %w", topic, attempts, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}

	logger.Log.Info().Int("partitions", len(partitions)).Msg("connected to kafka")
	return nil
}
