package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/repository"
)

type BookingRepo struct {
	db  *sql.DB
	now func() time.Time
}

const bookingColumns = `id, flight_id, seats, token, status, expires_at, email, created_at, updated_at`

func scanBooking(row scanner) (*domain.Booking, error) {
	var (
		b                               domain.Booking
		expiresAt, createdAt, updatedAt int64
	)
	if err := row.Scan(&b.ID, &b.FlightID, &b.Seats, &b.Token, &b.Status, &expiresAt, &b.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.ExpiresAt = fromMillis(expiresAt)
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return &b, nil
}

func (r *BookingRepo) CreatePending(ctx context.Context, booking *domain.Booking) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	booking.Status = domain.BookingStatusPending
	res, err := r.db.ExecContext(ctx, `INSERT INTO bookings (flight_id, seats, token, status, expires_at, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.FlightID, booking.Seats, booking.Token, string(booking.Status), toMillis(booking.ExpiresAt), booking.Email, toMillis(now), toMillis(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (r *BookingRepo) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *BookingRepo) TransitionStatus(ctx context.Context, token string, from, to domain.BookingStatus) (*domain.Booking, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE token = ? AND status = ?`,
		string(to), toMillis(r.now()), token, string(from)))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrBookingStateChanged
	}
	return r.GetByToken(ctx, token)
}

func (r *BookingRepo) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = ? AND expires_at <= ?`,
		string(domain.BookingStatusPending), toMillis(deadline))
	if err != nil {
		return nil, err
	}
	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := toMillis(r.now())
	for i := range expired {
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(domain.BookingStatusExpired), now, expired[i].ID, string(domain.BookingStatusPending)); err != nil {
			return nil, err
		}
		expired[i].Status = domain.BookingStatusExpired
	}
	return expired, tx.Commit()
}

var _ repository.BookingRepository = (*BookingRepo)(nil)
