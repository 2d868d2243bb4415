package reminder

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/notify"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TickResult counts what one ProcessDue pass did with each due reminder.
type TickResult struct {
	Due         int `json:"due"`
	Sent        int `json:"sent"`
	Rescheduled int `json:"rescheduled"`
	Retried     int `json:"retried"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeRescheduled
	outcomeRetried
	outcomeFailed
	outcomeSkipped
	outcomeError
)

func (r *TickResult) add(o outcome) {
	switch o {
	case outcomeSent:
		r.Sent++
	case outcomeRescheduled:
		r.Rescheduled++
	case outcomeRetried:
		r.Retried++
	case outcomeFailed:
		r.Failed++
	case outcomeSkipped:
		r.Skipped++
	case outcomeError:
		r.Errors++
	}
}

// ProcessDue handles every due reminder sequentially. A failure on one
// reminder is recorded on that reminder and never stops the pass; only a
// failure to list due reminders is returned.
func (s *Service) ProcessDue(ctx context.Context) (result TickResult, err error) {
	ctx, span := s.tracer.Start(ctx, "reminder.ProcessDue")
	defer func() {
		span.SetAttributes(
			attribute.Int("reminders.due", result.Due),
			attribute.Int("reminders.sent", result.Sent),
			attribute.Int("reminders.failed", result.Failed),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	due, err := s.reminders.ListDue(ctx, s.now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return result, fmt.Errorf("list due reminders: %w", err)
	}
	result.Due = len(due)

	for i := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.add(s.process(ctx, &due[i]))
	}
	return result, nil
}

func (s *Service) process(ctx context.Context, r *domain.Reminder) outcome {
	log := s.log.With().Int64("reminder_id", r.ID).Str("type", string(r.Type)).Logger()

	claimed, err := s.reminders.Claim(ctx, r.ID, r.Version, s.now().UTC().Add(s.cfg.ClaimLease()))
	if err != nil {
		log.Error().Err(err).Msg("claim reminder")
		return outcomeError
	}
	if !claimed {
		log.Debug().Msg("reminder claimed elsewhere, skipping")
		return outcomeSkipped
	}
	r.Version++

	if r.Timezone != "" && !s.zones.IsAppropriateHour(r.Timezone) {
		r.ScheduledAt = s.zones.NextSendWindow(r.Timezone)
		s.render(r)
		if !s.complete(ctx, r, log) {
			return outcomeError
		}
		log.Info().Str("timezone", r.Timezone).Time("scheduled_at", r.ScheduledAt).Msg("outside local send window, rescheduled")
		return outcomeRescheduled
	}

	result := outcomeSent
	if dispatchErr := s.dispatch(ctx, r); dispatchErr != nil {
		r.RetryCount++
		r.ErrorMessage = dispatchErr.Error()
		if r.RetryCount < s.cfg.MaxRetries {
			r.ScheduledAt = s.now().UTC().Add(s.cfg.RetryDelay())
			result = outcomeRetried
			log.Warn().Err(dispatchErr).Int("retry_count", r.RetryCount).Time("scheduled_at", r.ScheduledAt).Msg("dispatch failed, retry scheduled")
		} else {
			r.Status = domain.ReminderFailed
			result = outcomeFailed
			log.Error().Err(dispatchErr).Int("retry_count", r.RetryCount).Msg("dispatch failed, retries exhausted")
		}
	} else {
		sentAt := s.now().UTC()
		r.Status = domain.ReminderSent
		r.SentAt = &sentAt
		r.ErrorMessage = ""
	}

	if !s.complete(ctx, r, log) {
		return outcomeError
	}
	return result
}

// complete writes the outcome at the claimed version. It fails when the
// reminder was cancelled while dispatch was in flight.
func (s *Service) complete(ctx context.Context, r *domain.Reminder, log zerolog.Logger) bool {
	ok, err := s.reminders.Complete(ctx, r)
	if err != nil {
		log.Error().Err(err).Msg("store reminder outcome")
		return false
	}
	if !ok {
		log.Warn().Str("status", string(r.Status)).Msg("reminder changed during processing, outcome dropped")
		return false
	}
	return true
}

// dispatch sends the reminder on every channel it implies that has an
// address. Any channel failure fails the whole dispatch.
func (s *Service) dispatch(ctx context.Context, r *domain.Reminder) (err error) {
	ctx, span := s.tracer.Start(ctx, "reminder.dispatch", trace.WithAttributes(
		attribute.Int64("reminder.id", r.ID), attribute.String("reminder.channel", string(r.Channel))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	messages := deliveries(r)
	if len(messages) == 0 {
		return domain.ErrNoDeliverableChannel
	}

	var errs []error
	for _, msg := range messages {
		if err := s.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", msg.Channel, err))
		}
	}
	return errors.Join(errs...)
}

// deliveries expands the reminder's channel into addressed messages. Push
// notifications are addressed by user id.
func deliveries(r *domain.Reminder) []notify.Message {
	var out []notify.Message
	for _, ch := range r.Channel.Expand() {
		msg := notify.Message{ReminderID: r.ID, UserID: r.UserID, Channel: ch, Body: r.Message, Variant: r.Variant}
		switch ch {
		case domain.ChannelEmail:
			msg.To = r.Email
			msg.Subject = r.Subject
		case domain.ChannelSMS:
			msg.To = r.Phone
		case domain.ChannelPush:
			if r.UserID > 0 {
				msg.To = strconv.FormatInt(r.UserID, 10)
			}
		}
		if msg.To == "" {
			continue
		}
		out = append(out, msg)
	}
	return out
}
