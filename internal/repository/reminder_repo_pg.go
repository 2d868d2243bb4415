package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReminderRepository stores reminders. Claim and Complete are conditional on
// the reminder's version and PENDING status so that only one worker owns a
// reminder between claim and completion.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	GetByID(ctx context.Context, id int64) (*domain.Reminder, error)
	// ListDue returns PENDING reminders scheduled at or before now whose
	// claim lease, if any, has run out.
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	// Claim bumps the version and sets a lease if the reminder is still
	// PENDING at version. It reports whether this caller won the claim.
	Claim(ctx context.Context, id, version int64, lockedUntil time.Time) (bool, error)
	// Complete writes the outcome of a claimed reminder. reminder.Version must
	// be the claimed version; it is incremented on success.
	Complete(ctx context.Context, reminder *domain.Reminder) (bool, error)
	// Cancel moves a PENDING reminder to CANCELLED and reports whether it did.
	Cancel(ctx context.Context, id int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) ([]domain.Reminder, error)
	CountByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) (int, error)
	ExistsForEntity(ctx context.Context, reminderType domain.ReminderType, entityID int64) (bool, error)
	RecordResponse(ctx context.Context, id int64, action string, at time.Time) error
	VariantStats(ctx context.Context, reminderType domain.ReminderType) ([]domain.VariantStat, error)
}

type PGReminderRepository struct {
	db *pgxpool.Pool
}

func NewReminderRepository(db *pgxpool.Pool) ReminderRepository {
	return &PGReminderRepository{db: db}
}

const reminderColumns = `id, reminder_type, entity_id, user_id, email, phone, channel, status, scheduled_at, timezone, ab_variant, retry_count,
	language, recipient_name, treatment_type, reference_number, subject, message, sent_at, error_message, locked_until,
	response_action, responded_at, version, created_at, updated_at`

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var r domain.Reminder
	if err := row.Scan(&r.ID, &r.Type, &r.EntityID, &r.UserID, &r.Email, &r.Phone, &r.Channel, &r.Status, &r.ScheduledAt, &r.Timezone, &r.Variant, &r.RetryCount,
		&r.Language, &r.RecipientName, &r.TreatmentType, &r.ReferenceNumber, &r.Subject, &r.Message, &r.SentAt, &r.ErrorMessage, &r.LockedUntil,
		&r.ResponseAction, &r.RespondedAt, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectReminders(rows pgx.Rows) ([]domain.Reminder, error) {
	defer rows.Close()
	reminders := make([]domain.Reminder, 0)
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

func (r *PGReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.QueryRow(ctx, `INSERT INTO reminders (reminder_type, entity_id, user_id, email, phone, channel, status, scheduled_at, timezone, ab_variant,
			retry_count, language, recipient_name, treatment_type, reference_number, subject, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, version, created_at, updated_at`,
		reminder.Type, reminder.EntityID, reminder.UserID, reminder.Email, reminder.Phone, reminder.Channel, reminder.Status, reminder.ScheduledAt,
		reminder.Timezone, reminder.Variant, reminder.RetryCount, reminder.Language, reminder.RecipientName, reminder.TreatmentType,
		reminder.ReferenceNumber, reminder.Subject, reminder.Message).
		Scan(&reminder.ID, &reminder.Version, &reminder.CreatedAt, &reminder.UpdatedAt)
}

func (r *PGReminderRepository) GetByID(ctx context.Context, id int64) (*domain.Reminder, error) {
	rem, err := scanReminder(r.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReminderNotFound
	}
	return rem, err
}

func (r *PGReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders
		WHERE status=$1 AND scheduled_at <= $2 AND (locked_until IS NULL OR locked_until <= $2)
		ORDER BY scheduled_at, id
		LIMIT $3`, domain.ReminderPending, now, limit)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

func (r *PGReminderRepository) Claim(ctx context.Context, id, version int64, lockedUntil time.Time) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE reminders SET version = version + 1, locked_until = $3, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = $4`, id, version, lockedUntil, domain.ReminderPending)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGReminderRepository) Complete(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE reminders
		SET status = $3, scheduled_at = $4, retry_count = $5, sent_at = $6, error_message = $7, message = $8, subject = $9,
			locked_until = NULL, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = $10`,
		reminder.ID, reminder.Version, reminder.Status, reminder.ScheduledAt, reminder.RetryCount, reminder.SentAt, reminder.ErrorMessage,
		reminder.Message, reminder.Subject, domain.ReminderPending)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() == 0 {
		return false, nil
	}
	reminder.Version++
	reminder.LockedUntil = nil
	return true, nil
}

func (r *PGReminderRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE reminders SET status = $2, locked_until = NULL, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = $3`, id, domain.ReminderCancelled, domain.ReminderPending)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGReminderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE user_id=$1 ORDER BY scheduled_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

func (r *PGReminderRepository) ListByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) ([]domain.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE reminder_type=$1 AND status=$2 ORDER BY scheduled_at, id`, reminderType, status)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

func (r *PGReminderRepository) CountByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM reminders WHERE reminder_type=$1 AND status=$2`, reminderType, status).Scan(&n)
	return n, err
}

func (r *PGReminderRepository) ExistsForEntity(ctx context.Context, reminderType domain.ReminderType, entityID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reminders WHERE reminder_type=$1 AND entity_id=$2)`, reminderType, entityID).Scan(&exists)
	return exists, err
}

func (r *PGReminderRepository) RecordResponse(ctx context.Context, id int64, action string, at time.Time) error {
	res, err := r.db.Exec(ctx, `UPDATE reminders SET response_action=$2, responded_at=$3, updated_at=now() WHERE id=$1`, id, action, at)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *PGReminderRepository) VariantStats(ctx context.Context, reminderType domain.ReminderType) ([]domain.VariantStat, error) {
	rows, err := r.db.Query(ctx, `SELECT ab_variant, count(*), count(responded_at)
		FROM reminders WHERE reminder_type=$1 AND status=$2
		GROUP BY ab_variant ORDER BY ab_variant`, reminderType, domain.ReminderSent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.VariantStat, 0)
	for rows.Next() {
		var s domain.VariantStat
		if err := rows.Scan(&s.Variant, &s.Sent, &s.Responded); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

var _ ReminderRepository = (*PGReminderRepository)(nil)
