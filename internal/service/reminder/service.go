// Package reminder schedules, personalizes and delivers reminders for quotes
// and leads. Delivery is driven by ProcessDue; a reminder is claimed with a
// version-guarded update before it is dispatched, so overlapping workers
// never deliver the same reminder twice.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/config"
	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/notify"
	"github.com/Domenick1991/healthtrip/internal/repository"
	"github.com/Domenick1991/healthtrip/internal/service/abtest"
	"github.com/Domenick1991/healthtrip/internal/service/personalize"
	"github.com/Domenick1991/healthtrip/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ReminderUseCase interface {
	CreateQuoteReminder(ctx context.Context, input QuoteReminderInput) (*domain.Reminder, error)
	CreateQuoteExpiringReminder(ctx context.Context, input QuoteExpiringInput) (*domain.Reminder, error)
	CreateLeadFollowUp(ctx context.Context, input LeadFollowUpInput) (*domain.Reminder, error)
	Cancel(ctx context.Context, id int64) (*domain.Reminder, error)
	Get(ctx context.Context, id int64) (*domain.Reminder, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListPendingByType(ctx context.Context, reminderType domain.ReminderType) ([]domain.Reminder, error)
	TrackResponse(ctx context.Context, id int64, action string) error
	Statistics(ctx context.Context, reminderType domain.ReminderType) (*abtest.Statistics, error)
	ProcessDue(ctx context.Context) (TickResult, error)
}

// Zones answers local-time questions; unknown zones fall back silently.
type Zones interface {
	Valid(zone string) bool
	Fallback() string
	Resolve(countryCode string) string
	IsAppropriateHour(zone string) bool
	OptimalSendInstant(zone string, days int) time.Time
	NextSendWindow(zone string) time.Time
	AdjustForZone(at time.Time, zone string) time.Time
}

type Experiments interface {
	AssignVariant(ctx context.Context, reminderType domain.ReminderType) (string, error)
	TrackResponse(ctx context.Context, reminderID int64, action string) error
	Statistics(ctx context.Context, reminderType domain.ReminderType) (*abtest.Statistics, error)
}

// Recipient carries contact details shared by every trigger.
type Recipient struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Timezone string `json:"timezone"`
	Country  string `json:"country"`
}

type QuoteReminderInput struct {
	QuoteID       int64     `json:"quote_id"`
	Recipient     Recipient `json:"recipient"`
	QuoteSentAt   time.Time `json:"quote_sent_at"`
	TreatmentType string    `json:"treatment_type"`
	QuoteNumber   string    `json:"quote_number"`
}

type QuoteExpiringInput struct {
	QuoteID       int64     `json:"quote_id"`
	Recipient     Recipient `json:"recipient"`
	ValidUntil    time.Time `json:"valid_until"`
	TreatmentType string    `json:"treatment_type"`
	QuoteNumber   string    `json:"quote_number"`
}

type LeadFollowUpInput struct {
	LeadID    int64     `json:"lead_id"`
	Recipient Recipient `json:"recipient"`
	DaysLater int       `json:"days_later"`
}

type Service struct {
	reminders   repository.ReminderRepository
	sender      notify.Sender
	zones       Zones
	renderer    *personalize.Renderer
	experiments Experiments
	cfg         config.ReminderConfig
	now         func() time.Time
	log         zerolog.Logger
	tracer      trace.Tracer
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	reminders repository.ReminderRepository,
	sender notify.Sender,
	zones Zones,
	renderer *personalize.Renderer,
	experiments Experiments,
	cfg config.ReminderConfig,
	opts ...Option,
) *Service {
	s := &Service{
		reminders:   reminders,
		sender:      sender,
		zones:       zones,
		renderer:    renderer,
		experiments: experiments,
		cfg:         withDefaults(cfg),
		now:         time.Now,
		log:         logger.With("reminder"),
		tracer:      telemetry.Tracer("reminder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func withDefaults(cfg config.ReminderConfig) config.ReminderConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayMinutes <= 0 {
		cfg.RetryDelayMinutes = 60
	}
	if cfg.ClaimLeaseSeconds <= 0 {
		cfg.ClaimLeaseSeconds = 120
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.QuotePendingDelayDays <= 0 {
		cfg.QuotePendingDelayDays = 2
	}
	if cfg.QuoteExpiringLeadDays <= 0 {
		cfg.QuoteExpiringLeadDays = 1
	}
	if cfg.LeadFollowUpDays <= 0 {
		cfg.LeadFollowUpDays = 3
	}
	return cfg
}

// CreateQuoteReminder schedules a nudge QuotePendingDelayDays after the quote
// was sent, at the optimal local hour when the recipient's zone is known.
func (s *Service) CreateQuoteReminder(ctx context.Context, input QuoteReminderInput) (*domain.Reminder, error) {
	if err := validate(input.QuoteID, input.Recipient); err != nil {
		return nil, err
	}
	sentAt := input.QuoteSentAt
	if sentAt.IsZero() {
		sentAt = s.now()
	}

	r := s.newReminder(domain.ReminderQuotePending, input.QuoteID, input.Recipient)
	r.TreatmentType = strings.TrimSpace(input.TreatmentType)
	r.ReferenceNumber = strings.TrimSpace(input.QuoteNumber)
	r.Variant = s.assignVariant(ctx, r.Type)

	days := s.cfg.QuotePendingDelayDays
	if r.Timezone != "" {
		r.ScheduledAt = s.zones.OptimalSendInstant(r.Timezone, days)
	} else {
		r.ScheduledAt = sentAt.AddDate(0, 0, days).UTC()
	}
	return s.persist(ctx, r)
}

// CreateQuoteExpiringReminder schedules a warning QuoteExpiringLeadDays
// before the quote expires, shifted into the local send window.
func (s *Service) CreateQuoteExpiringReminder(ctx context.Context, input QuoteExpiringInput) (*domain.Reminder, error) {
	if err := validate(input.QuoteID, input.Recipient); err != nil {
		return nil, err
	}
	if input.ValidUntil.IsZero() {
		return nil, fmt.Errorf("%w: valid_until is required", domain.ErrInvalidReminder)
	}

	r := s.newReminder(domain.ReminderQuoteExpiring, input.QuoteID, input.Recipient)
	r.TreatmentType = strings.TrimSpace(input.TreatmentType)
	r.ReferenceNumber = strings.TrimSpace(input.QuoteNumber)
	r.Variant = s.assignVariant(ctx, r.Type)

	base := input.ValidUntil.AddDate(0, 0, -s.cfg.QuoteExpiringLeadDays)
	if r.Timezone != "" {
		r.ScheduledAt = s.zones.AdjustForZone(base, r.Timezone)
	} else {
		r.ScheduledAt = base.UTC()
	}
	return s.persist(ctx, r)
}

// CreateLeadFollowUp schedules a follow-up DaysLater days from now. Lead
// follow-ups have a single wording and always carry variant A.
func (s *Service) CreateLeadFollowUp(ctx context.Context, input LeadFollowUpInput) (*domain.Reminder, error) {
	if err := validate(input.LeadID, input.Recipient); err != nil {
		return nil, err
	}
	days := input.DaysLater
	if days <= 0 {
		days = s.cfg.LeadFollowUpDays
	}

	r := s.newReminder(domain.ReminderLeadFollowUp, input.LeadID, input.Recipient)
	r.Variant = domain.VariantA
	if r.Timezone != "" {
		r.ScheduledAt = s.zones.OptimalSendInstant(r.Timezone, days)
	} else {
		r.ScheduledAt = s.now().AddDate(0, 0, days).UTC()
	}
	return s.persist(ctx, r)
}

func validate(entityID int64, recipient Recipient) error {
	if entityID <= 0 {
		return fmt.Errorf("%w: entity id must be positive", domain.ErrInvalidReminder)
	}
	if recipient.UserID <= 0 {
		return fmt.Errorf("%w: user id must be positive", domain.ErrInvalidReminder)
	}
	return nil
}

func (s *Service) newReminder(reminderType domain.ReminderType, entityID int64, recipient Recipient) *domain.Reminder {
	return &domain.Reminder{
		Type:          reminderType,
		EntityID:      entityID,
		UserID:        recipient.UserID,
		Email:         strings.TrimSpace(recipient.Email),
		Phone:         strings.TrimSpace(recipient.Phone),
		Channel:       domain.ChannelAll,
		Status:        domain.ReminderPending,
		Timezone:      s.zoneFor(recipient),
		Language:      s.renderer.Language(recipient.Language),
		RecipientName: strings.TrimSpace(recipient.Name),
	}
}

// zoneFor prefers an explicit zone, then the country's zone. An explicit zone
// that cannot be loaded is replaced by the fallback zone.
func (s *Service) zoneFor(recipient Recipient) string {
	zone := strings.TrimSpace(recipient.Timezone)
	if zone == "" {
		if country := strings.TrimSpace(recipient.Country); country != "" {
			return s.zones.Resolve(country)
		}
		return ""
	}
	if !s.zones.Valid(zone) {
		s.log.Debug().Str("timezone", zone).Msg("unknown timezone, using fallback")
		return s.zones.Fallback()
	}
	return zone
}

func (s *Service) assignVariant(ctx context.Context, reminderType domain.ReminderType) string {
	variant, err := s.experiments.AssignVariant(ctx, reminderType)
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(reminderType)).Msg("assign variant, using A")
		return domain.VariantA
	}
	return variant
}

func (s *Service) render(r *domain.Reminder) {
	r.Message = s.renderer.Message(personalize.Input{
		Type:            r.Type,
		Variant:         r.Variant,
		Language:        r.Language,
		RecipientName:   r.RecipientName,
		TreatmentType:   r.TreatmentType,
		ReferenceNumber: r.ReferenceNumber,
	})
	r.Subject = s.renderer.Subject(r.Type, r.RecipientName, r.Language)
}

func (s *Service) persist(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	s.render(r)
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	s.log.Info().
		Int64("reminder_id", r.ID).
		Str("type", string(r.Type)).
		Int64("entity_id", r.EntityID).
		Str("variant", r.Variant).
		Time("scheduled_at", r.ScheduledAt).
		Msg("reminder scheduled")
	return r, nil
}

// Cancel moves a PENDING reminder to CANCELLED. Cancelling a reminder in a
// terminal state is a no-op that returns it unchanged.
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Reminder, error) {
	cancelled, err := s.reminders.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cancelled {
		s.log.Info().Int64("reminder_id", id).Msg("reminder cancelled")
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reminder, error) {
	return s.reminders.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID)
}

func (s *Service) ListPendingByType(ctx context.Context, reminderType domain.ReminderType) ([]domain.Reminder, error) {
	return s.reminders.ListByTypeAndStatus(ctx, reminderType, domain.ReminderPending)
}

func (s *Service) TrackResponse(ctx context.Context, id int64, action string) error {
	return s.experiments.TrackResponse(ctx, id, action)
}

func (s *Service) Statistics(ctx context.Context, reminderType domain.ReminderType) (*abtest.Statistics, error) {
	return s.experiments.Statistics(ctx, reminderType)
}

var _ ReminderUseCase = (*Service)(nil)
