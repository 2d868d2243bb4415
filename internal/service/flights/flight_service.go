package flights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/Domenick1991/healthtrip/internal/repository"
	"github.com/rs/zerolog"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type CreateFlightInput struct {
	FromAirport   string    `json:"from_airport"`
	ToAirport     string    `json:"to_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	TotalSeats    int       `json:"total_seats"`
	PriceCents    int64     `json:"price_cents"`
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   zerolog.Logger
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: logger.With("flights")}
}

// List serves from the cache when it can. Cache errors fall through to storage.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("read flights cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn().Err(err).Msg("fill flights cache")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Create opens a new seat pool with every seat available.
func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		FromAirport:    input.FromAirport,
		ToAirport:      input.ToAirport,
		DepartureTime:  input.DepartureTime.UTC(),
		ArrivalTime:    input.ArrivalTime.UTC(),
		TotalSeats:     input.TotalSeats,
		AvailableSeats: input.TotalSeats,
		IsBookable:     true,
		PriceCents:     input.PriceCents,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, fmt.Errorf("create flight: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn().Err(err).Msg("invalidate flights cache")
		}
	}
	s.log.Info().Int64("flight_id", flight.ID).Str("route", flight.FromAirport+"-"+flight.ToAirport).Int("seats", flight.TotalSeats).Msg("flight created")
	return flight, nil
}

func validate(input *CreateFlightInput) error {
	input.FromAirport = strings.ToUpper(strings.TrimSpace(input.FromAirport))
	input.ToAirport = strings.ToUpper(strings.TrimSpace(input.ToAirport))

	switch {
	case input.FromAirport == "" || input.ToAirport == "":
		return fmt.Errorf("%w: both airports are required", domain.ErrInvalidFlight)
	case input.FromAirport == input.ToAirport:
		return fmt.Errorf("%w: origin and destination must differ", domain.ErrInvalidFlight)
	case input.DepartureTime.IsZero() || !input.ArrivalTime.After(input.DepartureTime):
		return fmt.Errorf("%w: arrival must be after departure", domain.ErrInvalidFlight)
	case input.TotalSeats <= 0:
		return fmt.Errorf("%w: total seats must be positive", domain.ErrInvalidFlight)
	case input.PriceCents < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidFlight)
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
