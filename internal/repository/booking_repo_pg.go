package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	// TransitionStatus moves a booking from one status to another only if it
	// is still in from. It returns ErrBookingStateChanged otherwise.
	TransitionStatus(ctx context.Context, token string, from, to domain.BookingStatus) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, flight_id, seats, token, status, expires_at, email, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.Seats, &b.Token, &b.Status, &b.ExpiresAt, &b.Email, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (flight_id, seats, token, status, expires_at, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`, booking.FlightID, booking.Seats, booking.Token, booking.Status, booking.ExpiresAt, booking.Email).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE token=$1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) TransitionStatus(ctx context.Context, token string, from, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE token=$2 AND status=$3
		RETURNING `+bookingColumns, to, token, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingStateChanged
	}
	return b, err
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE status=$2 AND expires_at <= $3 RETURNING `+bookingColumns, domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
