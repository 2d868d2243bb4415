package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads one topic as a member of a consumer group. Offsets are
// committed by the reader after each ReadMessage.
type Consumer struct {
	reader messageReader
	topic  string
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          1 << 20,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		topic: topic,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is cancelled. A handler error is logged and the
// message skipped so that one malformed trigger does not stall the group.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	log := logger.With("kafka-consumer").With().Str("topic", c.topic).Logger()
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		msgCtx := otel.GetTextMapPropagator().Extract(ctx, headerCarrier{msg: &msg})
		if err := handler(msgCtx, msg); err != nil {
			log.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("handle message")
		}
	}
}
