package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/repository"
)

type ReminderRepo struct {
	db  *sql.DB
	now func() time.Time
}

const reminderColumns = `id, reminder_type, entity_id, user_id, email, phone, channel, status, scheduled_at, timezone, ab_variant, retry_count,
	language, recipient_name, treatment_type, reference_number, subject, message, sent_at, error_message, locked_until,
	response_action, responded_at, version, created_at, updated_at`

func scanReminder(row scanner) (*domain.Reminder, error) {
	var (
		r                                 domain.Reminder
		scheduledAt, createdAt, updatedAt int64
		sentAt, lockedUntil, respondedAt  sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Type, &r.EntityID, &r.UserID, &r.Email, &r.Phone, &r.Channel, &r.Status, &scheduledAt, &r.Timezone, &r.Variant, &r.RetryCount,
		&r.Language, &r.RecipientName, &r.TreatmentType, &r.ReferenceNumber, &r.Subject, &r.Message, &sentAt, &r.ErrorMessage, &lockedUntil,
		&r.ResponseAction, &respondedAt, &r.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.ScheduledAt = fromMillis(scheduledAt)
	r.SentAt = fromNullMillis(sentAt)
	r.LockedUntil = fromNullMillis(lockedUntil)
	r.RespondedAt = fromNullMillis(respondedAt)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}

func collectReminders(rows *sql.Rows, err error) ([]domain.Reminder, error) {
	if err != nil {
		return nil, err
	}
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

func (r *ReminderRepo) Create(ctx context.Context, reminder *domain.Reminder) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, `INSERT INTO reminders (reminder_type, entity_id, user_id, email, phone, channel, status, scheduled_at, timezone, ab_variant,
			retry_count, language, recipient_name, treatment_type, reference_number, subject, message, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		string(reminder.Type), reminder.EntityID, reminder.UserID, reminder.Email, reminder.Phone, string(reminder.Channel), string(reminder.Status),
		toMillis(reminder.ScheduledAt), reminder.Timezone, reminder.Variant, reminder.RetryCount, reminder.Language, reminder.RecipientName,
		reminder.TreatmentType, reminder.ReferenceNumber, reminder.Subject, reminder.Message, toMillis(now), toMillis(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reminder.ID = id
	reminder.Version = 0
	reminder.CreatedAt = now
	reminder.UpdatedAt = now
	return nil
}

func (r *ReminderRepo) GetByID(ctx context.Context, id int64) (*domain.Reminder, error) {
	rem, err := scanReminder(r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReminderNotFound
	}
	return rem, err
}

func (r *ReminderRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	ms := toMillis(now)
	return collectReminders(r.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders
		WHERE status = ? AND scheduled_at <= ? AND (locked_until IS NULL OR locked_until <= ?)
		ORDER BY scheduled_at, id
		LIMIT ?`, string(domain.ReminderPending), ms, ms, limit))
}

func (r *ReminderRepo) Claim(ctx context.Context, id, version int64, lockedUntil time.Time) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `UPDATE reminders SET version = version + 1, locked_until = ?, updated_at = ?
		WHERE id = ? AND version = ? AND status = ?`,
		toMillis(lockedUntil), toMillis(r.now()), id, version, string(domain.ReminderPending)))
	return n == 1, err
}

func (r *ReminderRepo) Complete(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `UPDATE reminders
		SET status = ?, scheduled_at = ?, retry_count = ?, sent_at = ?, error_message = ?, message = ?, subject = ?,
			locked_until = NULL, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND status = ?`,
		string(reminder.Status), toMillis(reminder.ScheduledAt), reminder.RetryCount, nullMillis(reminder.SentAt), reminder.ErrorMessage,
		reminder.Message, reminder.Subject, toMillis(r.now()), reminder.ID, reminder.Version, string(domain.ReminderPending)))
	if err != nil || n == 0 {
		return false, err
	}
	reminder.Version++
	reminder.LockedUntil = nil
	return true, nil
}

func (r *ReminderRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, `UPDATE reminders SET status = ?, locked_until = NULL, version = version + 1, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.ReminderCancelled), toMillis(r.now()), id, string(domain.ReminderPending)))
	return n == 1, err
}

func (r *ReminderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return collectReminders(r.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? ORDER BY scheduled_at DESC, id DESC`, userID))
}

func (r *ReminderRepo) ListByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) ([]domain.Reminder, error) {
	return collectReminders(r.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE reminder_type = ? AND status = ? ORDER BY scheduled_at, id`,
		string(reminderType), string(status)))
}

func (r *ReminderRepo) CountByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM reminders WHERE reminder_type = ? AND status = ?`, string(reminderType), string(status)).Scan(&n)
	return n, err
}

func (r *ReminderRepo) ExistsForEntity(ctx context.Context, reminderType domain.ReminderType, entityID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM reminders WHERE reminder_type = ? AND entity_id = ?`, string(reminderType), entityID).Scan(&n)
	return n > 0, err
}

func (r *ReminderRepo) RecordResponse(ctx context.Context, id int64, action string, at time.Time) error {
	n, err := rowsAffected(r.db.ExecContext(ctx, `UPDATE reminders SET response_action = ?, responded_at = ?, updated_at = ? WHERE id = ?`,
		action, toMillis(at), toMillis(r.now()), id))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderRepo) VariantStats(ctx context.Context, reminderType domain.ReminderType) ([]domain.VariantStat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ab_variant, count(*), count(responded_at)
		FROM reminders WHERE reminder_type = ? AND status = ?
		GROUP BY ab_variant ORDER BY ab_variant`, string(reminderType), string(domain.ReminderSent))
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

var _ repository.ReminderRepository = (*ReminderRepo)(nil)
