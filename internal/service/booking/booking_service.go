package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/kafka"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/repository"
	"github.com/Domenick1991/healthtrip/internal/service/seats"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, token string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, token string) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	seats              seats.SeatUseCase
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	confirmationTTL    time.Duration
	now                func() time.Time
	log                zerolog.Logger
}

type CreateBookingInput struct {
	FlightID int64  `json:"flight_id"`
	Seats    int    `json:"seats"`
	Email    string `json:"email"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	seatPool seats.SeatUseCase,
	producer Producer,
	bookingTopic string,
	holdTTL, confirmationTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		seats:           seatPool,
		producer:        producer,
		bookingTopic:    bookingTopic,
		holdTTL:         holdTTL,
		confirmationTTL: confirmationTTL,
		now:             time.Now,
		log:             logger.With("booking"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking reserves the seats first and then records a PENDING booking
// holding them. If the booking cannot be stored the seats go back to the pool.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.Seats <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", domain.ErrInvalidBooking)
	}

	if err := s.reserve(ctx, input.FlightID, input.Seats); err != nil {
		return nil, err
	}

	expiresIn := s.confirmationTTL
	if expiresIn == 0 {
		expiresIn = s.holdTTL
	}
	booking := &domain.Booking{
		FlightID:  input.FlightID,
		Seats:     input.Seats,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(expiresIn),
		Email:     email,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if _, releaseErr := s.seats.ReleaseSeats(ctx, input.FlightID, input.Seats); releaseErr != nil {
			s.log.Error().Err(releaseErr).Int64("flight_id", input.FlightID).Int("seats", input.Seats).Msg("return seats after failed booking insert")
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info().Str("token", booking.Token).Int64("flight_id", booking.FlightID).Int("seats", booking.Seats).Msg("booking created")
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// reserve retries once when the pool changed between read and write but
// still had room.
func (s *BookingService) reserve(ctx context.Context, flightID int64, count int) error {
	_, err := s.seats.ReserveSeats(ctx, flightID, count)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		s.log.Debug().Int64("flight_id", flightID).Msg("seat pool changed concurrently, retrying once")
		_, err = s.seats.ReserveSeats(ctx, flightID, count)
	}
	return err
}

func (s *BookingService) ConfirmBooking(ctx context.Context, token string) (*domain.Booking, error) {
	current, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, domain.ErrBookingNotPending
	}

	updated, err := s.bookings.TransitionStatus(ctx, token, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		if errors.Is(err, domain.ErrBookingStateChanged) {
			return nil, domain.ErrBookingNotPending
		}
		return nil, err
	}
	s.publish(ctx, "booking_confirmed", updated)
	return updated, nil
}

// CancelBooking releases the booking's seats. Only the caller whose status
// transition wins gives the seats back; a booking that is already cancelled
// or expired is returned unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, token string) (*domain.Booking, error) {
	current, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !current.HoldsSeats() {
		return current, nil
	}

	updated, err := s.bookings.TransitionStatus(ctx, token, current.Status, domain.BookingStatusCancelled)
	if errors.Is(err, domain.ErrBookingStateChanged) {
		return s.bookings.GetByToken(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	s.releaseSeats(ctx, updated)
	s.publish(ctx, "booking_cancelled", updated)
	return updated, nil
}

func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		s.releaseSeats(ctx, &expired[i])
		s.publish(ctx, "booking_expired", &expired[i])
	}
	if len(expired) > 0 {
		s.log.Info().Int("count", len(expired)).Msg("pending bookings expired")
	}
	return expired, nil
}

func (s *BookingService) releaseSeats(ctx context.Context, booking *domain.Booking) {
	if _, err := s.seats.ReleaseSeats(ctx, booking.FlightID, booking.Seats); err != nil {
		s.log.Error().Err(err).Str("token", booking.Token).Int64("flight_id", booking.FlightID).Int("seats", booking.Seats).Msg("release booking seats")
	}
}

// publish is best effort; a failed event never fails the booking operation.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:      eventType,
		Token:     booking.Token,
		FlightID:  booking.FlightID,
		Seats:     booking.Seats,
		Email:     booking.Email,
		Status:    string(booking.Status),
		ExpiresAt: booking.ExpiresAt,
	}
	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, booking.Token, event); err != nil {
			s.log.Warn().Err(err).Str("event", eventType).Str("token", booking.Token).Str("topic", topic).Msg("publish booking event")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
