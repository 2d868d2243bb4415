package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlightRepository is the seat-pool storage. The mutating methods are single
// conditional statements and report how many rows they touched; zero rows is
// a signal for the caller to re-read, not an error.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	// ReserveSeats decrements available seats by count only when enough
	// seats remain, the pool is bookable and the version still matches.
	ReserveSeats(ctx context.Context, flightID int64, count int, version int64) (int64, error)
	// ReleaseSeats increments available seats by count, never above total.
	ReleaseSeats(ctx context.Context, flightID int64, count int) (int64, error)
	// ReconcileBookable sets is_bookable to available_seats > 0 when they disagree.
	ReconcileBookable(ctx context.Context, flightID int64) (int64, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, is_bookable, version, price_cents, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.IsBookable, &f.Version, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return r.db.QueryRow(ctx, `INSERT INTO flights (from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, is_bookable, version, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		flight.FromAirport, flight.ToAirport, flight.DepartureTime, flight.ArrivalTime, flight.TotalSeats, flight.AvailableSeats, flight.IsBookable, flight.Version, flight.PriceCents).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *PGFlightRepository) ReserveSeats(ctx context.Context, flightID int64, count int, version int64) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights
		SET available_seats = available_seats - $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND available_seats >= $2 AND is_bookable AND version = $3`, flightID, count, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, count int) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights
		SET available_seats = available_seats + $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND available_seats + $2 <= total_seats`, flightID, count)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGFlightRepository) ReconcileBookable(ctx context.Context, flightID int64) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights
		SET is_bookable = (available_seats > 0), version = version + 1, updated_at = now()
		WHERE id = $1 AND is_bookable <> (available_seats > 0)`, flightID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
