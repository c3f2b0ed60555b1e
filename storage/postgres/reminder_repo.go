package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

const reminderColumns = `id, trip_id, driver_id, attempt, last_sent_at, next_due_at, is_active, created_at`

type reminderRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewReminderRepo(db *pgxpool.Pool, log logger.ILogger) storage.IReminderStorage {
	return &reminderRepo{db: db, log: log}
}

func scanReminder(row pgx.Row, rm *models.Reminder) error {
	return row.Scan(&rm.ID, &rm.TripID, &rm.DriverID, &rm.Attempt, &rm.LastSentAt, &rm.NextDueAt, &rm.Active, &rm.CreatedAt)
}

func (r *reminderRepo) CreateIfAbsent(ctx context.Context, tripID, driverID int64, nextDueAt time.Time) (bool, error) {
	// uq_trip_reminders_active makes concurrent inserts for the same pair collapse into one.
	res, err := r.db.Exec(ctx, `
		INSERT INTO trip_reminders (trip_id, driver_id, attempt, next_due_at, is_active)
		VALUES ($1, $2, 1, $3, TRUE)
		ON CONFLICT (trip_id, driver_id) WHERE is_active DO NOTHING
	`, tripID, driverID, nextDueAt)
	if err != nil {
		r.log.Error("failed to create reminder", logger.Int64("trip_id", tripID), logger.Int64("driver_id", driverID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *reminderRepo) GetActive(ctx context.Context, tripID, driverID int64) (*models.Reminder, error) {
	var rm models.Reminder
	err := scanReminder(r.db.QueryRow(ctx, `
		SELECT `+reminderColumns+` FROM trip_reminders
		WHERE trip_id = $1 AND driver_id = $2 AND is_active
	`, tripID, driverID), &rm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get active reminder", logger.Int64("trip_id", tripID), logger.Error(err))
		return nil, err
	}
	return &rm, nil
}

func (r *reminderRepo) ListByTrip(ctx context.Context, tripID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM trip_reminders WHERE trip_id = $1 ORDER BY id`, tripID)
	if err != nil {
		r.log.Error("failed to list reminders", logger.Int64("trip_id", tripID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.Reminder
	for rows.Next() {
		var rm models.Reminder
		if err := scanReminder(rows, &rm); err != nil {
			return nil, err
		}
		list = append(list, &rm)
	}
	return list, rows.Err()
}

func (r *reminderRepo) GetDue(ctx context.Context, now time.Time) ([]*models.DueReminder, error) {
	query := `
		SELECT r.id, r.trip_id, r.driver_id, r.attempt, r.last_sent_at, r.next_due_at, r.is_active, r.created_at,
		       t.id, t.name, t.comment, t.status, t.driver_id, t.created_at,
		       COALESCE(ds.name, ''), COALESCE(ds.phone, ''),
		       d.id, d.name, d.telegram_username, d.telegram_chat_id
		FROM trip_reminders r
		JOIN trips t ON t.id = r.trip_id AND t.deleted_at IS NULL
		JOIN drivers d ON d.id = r.driver_id
		LEFT JOIN dispatchers ds ON ds.id = t.dispatcher_id
		WHERE r.is_active
		  AND r.next_due_at <= $1
		  AND t.status = $2
		  AND d.telegram_chat_id IS NOT NULL
		ORDER BY r.next_due_at, r.id
	`
	rows, err := r.db.Query(ctx, query, now, models.TripStatusNew)
	if err != nil {
		r.log.Error("failed to get due reminders", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var due []*models.DueReminder
	for rows.Next() {
		var d models.DueReminder
		err := rows.Scan(
			&d.Reminder.ID, &d.Reminder.TripID, &d.Reminder.DriverID, &d.Reminder.Attempt,
			&d.Reminder.LastSentAt, &d.Reminder.NextDueAt, &d.Reminder.Active, &d.Reminder.CreatedAt,
			&d.Trip.ID, &d.Trip.Name, &d.Trip.Comment, &d.Trip.Status, &d.Trip.DriverID, &d.Trip.CreatedAt,
			&d.Trip.DispatcherName, &d.Trip.DispatcherPhone,
			&d.Driver.ID, &d.Driver.Name, &d.Driver.TelegramUsername, &d.Driver.TelegramChatID,
		)
		if err != nil {
			return nil, err
		}
		due = append(due, &d)
	}
	return due, rows.Err()
}

func (r *reminderRepo) Reschedule(ctx context.Context, id int64, sentAt, nextDueAt time.Time, attempt int, active bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trip_reminders SET last_sent_at = $2, next_due_at = $3, attempt = $4, is_active = $5
		WHERE id = $1
	`, id, sentAt, nextDueAt, attempt, active)
	if err != nil {
		r.log.Error("failed to reschedule reminder", logger.Int64("reminder_id", id), logger.Error(err))
	}
	return err
}

func (r *reminderRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE trip_reminders SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to deactivate reminder", logger.Int64("reminder_id", id), logger.Error(err))
	}
	return err
}

func (r *reminderRepo) DeactivateForTrip(ctx context.Context, tripID int64) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE trip_reminders SET is_active = FALSE WHERE trip_id = $1 AND is_active`, tripID)
	if err != nil {
		r.log.Error("failed to deactivate trip reminders", logger.Int64("trip_id", tripID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}
