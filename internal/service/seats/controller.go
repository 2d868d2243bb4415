// Package seats serializes concurrent changes to a flight's seat pool. It
// holds no in-process lock: every mutation is a conditional update in
// storage, so any number of stateless instances can share one pool.
package seats

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/repository"
	"github.com/Domenick1991/healthtrip/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type SeatUseCase interface {
	ReserveSeats(ctx context.Context, flightID int64, count int) (*domain.Flight, error)
	ReleaseSeats(ctx context.Context, flightID int64, count int) (*domain.Flight, error)
	HasCapacity(ctx context.Context, flightID int64, count int) (bool, error)
}

// FlightInvalidator drops cached flight listings after an inventory change.
type FlightInvalidator interface {
	InvalidateFlights(ctx context.Context) error
}

type Controller struct {
	flights repository.FlightRepository
	cache   FlightInvalidator
	now     func() time.Time
	log     zerolog.Logger
	tracer  trace.Tracer
}

type Option func(*Controller)

func WithCache(cache FlightInvalidator) Option {
	return func(c *Controller) {
		c.cache = cache
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(flights repository.FlightRepository, opts ...Option) *Controller {
	c := &Controller{
		flights: flights,
		now:     time.Now,
		log:     logger.With("seats"),
		tracer:  telemetry.Tracer("seats"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReserveSeats takes count seats from the pool at the version it just read.
// A lost race is reported as *domain.CapacityError with Contended set when
// the seats are gone, or ErrConcurrencyConflict when enough remain and the
// caller may retry.
func (c *Controller) ReserveSeats(ctx context.Context, flightID int64, count int) (_ *domain.Flight, err error) {
	ctx, span := c.tracer.Start(ctx, "seats.ReserveSeats", trace.WithAttributes(
		attribute.Int64("flight.id", flightID), attribute.Int("seats.count", count)))
	defer func() { endSpan(span, err) }()

	if count <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}

	flight, err := c.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if !flight.DepartureTime.IsZero() && !flight.DepartureTime.After(c.now()) {
		return nil, domain.ErrFlightDeparted
	}
	if !flight.HasCapacity(count) {
		c.log.Warn().Int64("flight_id", flightID).Int("requested", count).Int("available", flight.AvailableSeats).Msg("seat pool exhausted")
		return nil, &domain.CapacityError{FlightID: flightID, Requested: count, Available: flight.AvailableSeats}
	}

	affected, err := c.flights.ReserveSeats(ctx, flightID, count, flight.Version)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, c.explainMiss(ctx, flightID, count)
	}

	updated, err := c.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if updated.AvailableSeats == 0 && updated.IsBookable {
		if _, err := c.flights.ReconcileBookable(ctx, flightID); err != nil {
			return nil, err
		}
		updated.IsBookable = false
	}

	c.invalidate(ctx)
	c.log.Info().Int64("flight_id", flightID).Int("count", count).Int("available", updated.AvailableSeats).Msg("seats reserved")
	return updated, nil
}

// explainMiss re-reads the pool after a zero-row reservation.
func (c *Controller) explainMiss(ctx context.Context, flightID int64, count int) error {
	current, err := c.flights.GetByID(ctx, flightID)
	if err != nil {
		return err
	}
	if current.HasCapacity(count) {
		c.log.Debug().Int64("flight_id", flightID).Int64("version", current.Version).Msg("seat pool version moved")
		return domain.ErrConcurrencyConflict
	}
	c.log.Warn().Int64("flight_id", flightID).Int("requested", count).Int("available", current.AvailableSeats).Msg("seats taken by a concurrent booking")
	return &domain.CapacityError{FlightID: flightID, Requested: count, Available: current.AvailableSeats, Contended: true}
}

// ReleaseSeats returns count seats to the pool. Bookability never gates a
// release; the pool is made bookable again once seats are available.
func (c *Controller) ReleaseSeats(ctx context.Context, flightID int64, count int) (_ *domain.Flight, err error) {
	ctx, span := c.tracer.Start(ctx, "seats.ReleaseSeats", trace.WithAttributes(
		attribute.Int64("flight.id", flightID), attribute.Int("seats.count", count)))
	defer func() { endSpan(span, err) }()

	if count <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}

	affected, err := c.flights.ReleaseSeats(ctx, flightID, count)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := c.flights.GetByID(ctx, flightID); err != nil {
			return nil, err
		}
		return nil, domain.ErrReleaseExceedsCapacity
	}

	updated, err := c.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if !updated.IsBookable && updated.AvailableSeats > 0 {
		if _, err := c.flights.ReconcileBookable(ctx, flightID); err != nil {
			return nil, err
		}
		updated.IsBookable = true
	}

	c.invalidate(ctx)
	c.log.Info().Int64("flight_id", flightID).Int("count", count).Int("available", updated.AvailableSeats).Msg("seats released")
	return updated, nil
}

// HasCapacity is advisory. A true answer does not hold any seats.
func (c *Controller) HasCapacity(ctx context.Context, flightID int64, count int) (bool, error) {
	if count <= 0 {
		return false, domain.ErrInvalidSeatCount
	}
	flight, err := c.flights.GetByID(ctx, flightID)
	if err != nil {
		return false, err
	}
	return flight.HasCapacity(count), nil
}

func (c *Controller) invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateFlights(ctx); err != nil {
		c.log.Warn().Err(err).Msg("invalidate flights cache")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrCapacityExhausted) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ SeatUseCase = (*Controller)(nil)
