package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/repository"
)

type FlightRepo struct {
	db  *sql.DB
	now func() time.Time
}

const flightColumns = `id, from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, is_bookable, version, price_cents, created_at, updated_at`

func scanFlight(row scanner) (*domain.Flight, error) {
	var (
		f                                        domain.Flight
		departure, arrival, createdAt, updatedAt int64
	)
	if err := row.Scan(&f.ID, &f.FromAirport, &f.ToAirport, &departure, &arrival, &f.TotalSeats, &f.AvailableSeats, &f.IsBookable, &f.Version, &f.PriceCents, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.DepartureTime = fromMillis(departure)
	f.ArrivalTime = fromMillis(arrival)
	f.CreatedAt = fromMillis(createdAt)
	f.UpdatedAt = fromMillis(updatedAt)
	return &f, nil
}

func (r *FlightRepo) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
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

func (r *FlightRepo) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

func (r *FlightRepo) Create(ctx context.Context, flight *domain.Flight) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, `INSERT INTO flights (from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, is_bookable, version, price_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		flight.FromAirport, flight.ToAirport, toMillis(flight.DepartureTime), toMillis(flight.ArrivalTime), flight.TotalSeats, flight.AvailableSeats,
		flight.IsBookable, flight.Version, flight.PriceCents, toMillis(now), toMillis(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	flight.ID = id
	flight.CreatedAt = now
	flight.UpdatedAt = now
	return nil
}

func (r *FlightRepo) ReserveSeats(ctx context.Context, flightID int64, count int, version int64) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `UPDATE flights
		SET available_seats = available_seats - ?, version = version + 1, updated_at = ?
		WHERE id = ? AND available_seats >= ? AND is_bookable = 1 AND version = ?`,
		count, toMillis(r.now()), flightID, count, version))
}

func (r *FlightRepo) ReleaseSeats(ctx context.Context, flightID int64, count int) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `UPDATE flights
		SET available_seats = available_seats + ?, version = version + 1, updated_at = ?
		WHERE id = ? AND available_seats + ? <= total_seats`,
		count, toMillis(r.now()), flightID, count))
}

func (r *FlightRepo) ReconcileBookable(ctx context.Context, flightID int64) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `UPDATE flights
		SET is_bookable = (available_seats > 0), version = version + 1, updated_at = ?
		WHERE id = ? AND is_bookable <> (available_seats > 0)`,
		toMillis(r.now()), flightID))
}

var _ repository.FlightRepository = (*FlightRepo)(nil)
