// Package notify delivers rendered reminders. Senders report failures as
// errors; retry policy belongs to the caller.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/rs/zerolog"
)

// Message is one delivery on one concrete channel.
type Message struct {
	ReminderID int64
	UserID     int64
	Channel    domain.Channel
	To         string
	Subject    string
	Body       string
	Variant    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) event(now time.Time) kafka.NotificationMessage {
	return kafka.NotificationMessage{
		ReminderID: m.ReminderID,
		UserID:     m.UserID,
		Channel:    string(m.Channel),
		To:         m.To,
		Subject:    m.Subject,
		Body:       m.Body,
		Variant:    m.Variant,
		CreatedAt:  now.UTC(),
	}
}

func (m Message) routingKey() string {
	return "reminder." + strings.ToLower(string(m.Channel))
}

// LogSender writes deliveries to the log. It stands in for real providers in
// development.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: logger.With("notify")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Int64("reminder_id", msg.ReminderID).
		Str("channel", string(msg.Channel)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("notification sent")
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaSender hands deliveries to a notifications topic consumed by the
// provider adapters.
type KafkaSender struct {
	producer Publisher
	topic    string
	now      func() time.Time
}

func NewKafkaSender(producer Publisher, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic, now: time.Now}
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	key := fmt.Sprintf("%d:%s", msg.ReminderID, msg.Channel)
	return s.producer.Publish(ctx, s.topic, key, msg.event(s.now()))
}

type ExchangePublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AMQPSender publishes deliveries to a topic exchange with routing keys
// reminder.email, reminder.sms and reminder.push.
type AMQPSender struct {
	publisher ExchangePublisher
	now       func() time.Time
}

func NewAMQPSender(publisher ExchangePublisher) *AMQPSender {
	return &AMQPSender{publisher: publisher, now: time.Now}
}

func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	return s.publisher.Publish(ctx, msg.routingKey(), msg.event(s.now()))
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*KafkaSender)(nil)
	_ Sender = (*AMQPSender)(nil)
)
