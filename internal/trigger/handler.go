// Package trigger turns upstream business events into scheduled reminders.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/service/reminder"
	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
)

const (
	EventQuoteSent     = "quote_sent"
	EventQuoteExpiring = "quote_expiring"
	EventLeadCreated   = "lead_created"
)

type Creator interface {
	CreateQuoteReminder(ctx context.Context, input reminder.QuoteReminderInput) (*domain.Reminder, error)
	CreateQuoteExpiringReminder(ctx context.Context, input reminder.QuoteExpiringInput) (*domain.Reminder, error)
	CreateLeadFollowUp(ctx context.Context, input reminder.LeadFollowUpInput) (*domain.Reminder, error)
}

// Deduper reports whether a reminder was already scheduled for an entity.
type Deduper interface {
	ExistsForEntity(ctx context.Context, reminderType domain.ReminderType, entityID int64) (bool, error)
}

type Handler struct {
	creator Creator
	deduper Deduper
	log     zerolog.Logger
}

func NewHandler(creator Creator, deduper Deduper) *Handler {
	return &Handler{creator: creator, deduper: deduper, log: logger.With("reminder-trigger")}
}

// ReminderType maps an event name to the reminder it schedules. Reminder type
// names are accepted as well.
func ReminderType(event string) (domain.ReminderType, bool) {
	switch strings.ToLower(strings.TrimSpace(event)) {
	case EventQuoteSent, "quote_pending":
		return domain.ReminderQuotePending, true
	case EventQuoteExpiring:
		return domain.ReminderQuoteExpiring, true
	case EventLeadCreated, "lead_follow_up":
		return domain.ReminderLeadFollowUp, true
	}
	return "", false
}

// HandleMessage decodes a Kafka message and handles the trigger in it.
// Undecodable payloads are dropped with a log line so the consumer keeps going.
func (h *Handler) HandleMessage(ctx context.Context, msg kafkaGo.Message) error {
	var event kafka.ReminderTrigger
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("undecodable reminder trigger dropped")
		return nil
	}
	_, err := h.Handle(ctx, event)
	return err
}

// Handle schedules the reminder for event. It returns nil without error when
// a reminder of the same type already exists for the entity.
func (h *Handler) Handle(ctx context.Context, event kafka.ReminderTrigger) (*domain.Reminder, error) {
	reminderType, ok := ReminderType(event.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown trigger type %q", domain.ErrInvalidReminder, event.Type)
	}

	exists, err := h.deduper.ExistsForEntity(ctx, reminderType, event.EntityID)
	if err != nil {
		return nil, fmt.Errorf("check existing reminder: %w", err)
	}
	if exists {
		h.log.Debug().Str("type", string(reminderType)).Int64("entity_id", event.EntityID).Msg("duplicate trigger ignored")
		return nil, nil
	}

	recipient := reminder.Recipient{
		UserID:   event.UserID,
		Email:    event.Email,
		Phone:    event.Phone,
		Name:     event.Name,
		Language: event.Language,
		Timezone: event.Timezone,
		Country:  event.Country,
	}

	switch reminderType {
	case domain.ReminderQuotePending:
		return h.creator.CreateQuoteReminder(ctx, reminder.QuoteReminderInput{
			QuoteID:       event.EntityID,
			Recipient:     recipient,
			QuoteSentAt:   deref(event.SentAt),
			TreatmentType: event.TreatmentType,
			QuoteNumber:   event.ReferenceNumber,
		})
	case domain.ReminderQuoteExpiring:
		return h.creator.CreateQuoteExpiringReminder(ctx, reminder.QuoteExpiringInput{
			QuoteID:       event.EntityID,
			Recipient:     recipient,
			ValidUntil:    deref(event.ValidUntil),
			TreatmentType: event.TreatmentType,
			QuoteNumber:   event.ReferenceNumber,
		})
	default:
		return h.creator.CreateLeadFollowUp(ctx, reminder.LeadFollowUpInput{
			LeadID:    event.EntityID,
			Recipient: recipient,
			DaysLater: event.DaysLater,
		})
	}
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
