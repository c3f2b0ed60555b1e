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

const tripSelect = `
	SELECT t.id, t.name, t.date, t.client_name, t.client_phone, t.address, t.comment, t.car_number, t.reason,
	       t.status, t.driver_id, t.dispatcher_id, t.documents, t.has_waybill,
	       t.notified, t.notified_at, t.notified_count, t.created_at, t.updated_at, t.deleted_at,
	       COALESCE(d.name, ''), COALESCE(d.phone, '')
	FROM trips t
	LEFT JOIN dispatchers d ON d.id = t.dispatcher_id
`

type tripRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewTripRepo(db *pgxpool.Pool, log logger.ILogger) storage.ITripStorage {
	return &tripRepo{db: db, log: log}
}

func scanTrip(row pgx.Row, t *models.Trip) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Date, &t.ClientName, &t.ClientPhone, &t.Address, &t.Comment, &t.CarNumber, &t.Reason,
		&t.Status, &t.DriverID, &t.DispatcherID, &t.Documents, &t.HasWaybill,
		&t.Notified, &t.NotifiedAt, &t.NotifiedCount, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
		&t.DispatcherName, &t.DispatcherPhone,
	)
}

func documentsOrEmpty(docs []models.Attachment) []models.Attachment {
	if docs == nil {
		return []models.Attachment{}
	}
	return docs
}

func (r *tripRepo) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if trip.Status == "" {
		trip.Status = models.TripStatusNew
	}
	query := `
		INSERT INTO trips (name, date, client_name, client_phone, address, comment, car_number, reason, status, driver_id, dispatcher_id, documents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		trip.Name,
		trip.Date,
		trip.ClientName,
		trip.ClientPhone,
		trip.Address,
		trip.Comment,
		trip.CarNumber,
		trip.Reason,
		trip.Status,
		trip.DriverID,
		trip.DispatcherID,
		documentsOrEmpty(trip.Documents),
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)

	if err != nil {
		r.log.Error("failed to create trip", logger.Error(err))
		return nil, err
	}

	return trip, nil
}

func (r *tripRepo) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	query := `
		UPDATE trips
		SET name = $1, date = $2, client_name = $3, client_phone = $4, address = $5, comment = $6,
		    car_number = $7, reason = $8, status = $9, driver_id = $10, dispatcher_id = $11, documents = $12,
		    updated_at = NOW()
		WHERE id = $13 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		trip.Name,
		trip.Date,
		trip.ClientName,
		trip.ClientPhone,
		trip.Address,
		trip.Comment,
		trip.CarNumber,
		trip.Reason,
		trip.Status,
		trip.DriverID,
		trip.DispatcherID,
		documentsOrEmpty(trip.Documents),
		trip.ID,
	).Scan(&trip.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to update trip", logger.Int64("trip_id", trip.ID), logger.Error(err))
		return nil, err
	}

	return trip, nil
}

func (r *tripRepo) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	var trip models.Trip
	err := scanTrip(r.db.QueryRow(ctx, tripSelect+` WHERE t.id = $1 AND t.deleted_at IS NULL`, id), &trip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get trip by id", logger.Int64("trip_id", id), logger.Error(err))
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepo) GetDriverTrips(ctx context.Context, driverID int64, statuses []models.TripStatus, limit int) ([]*models.Trip, error) {
	query := tripSelect + `
		WHERE t.driver_id = $1 AND t.deleted_at IS NULL
		  AND (cardinality($2::text[]) = 0 OR t.status = ANY($2::text[]))
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 20
	}
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}

	rows, err := r.db.Query(ctx, query, driverID, raw, limit)
	if err != nil {
		r.log.Error("failed to get driver trips", logger.Int64("driver_id", driverID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		var t models.Trip
		if err := scanTrip(rows, &t); err != nil {
			return nil, err
		}
		trips = append(trips, &t)
	}
	return trips, rows.Err()
}

func (r *tripRepo) CountDriverTrips(ctx context.Context, driverID int64) (models.TripCounts, error) {
	var c models.TripCounts
	query := `
		SELECT COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3),
		       COUNT(*)
		FROM trips
		WHERE driver_id = $1 AND deleted_at IS NULL
	`
	err := r.db.QueryRow(ctx, query, driverID, models.TripStatusNew, models.TripStatusInProgress).
		Scan(&c.Available, &c.Active, &c.Total)
	if err != nil {
		r.log.Error("failed to count driver trips", logger.Int64("driver_id", driverID), logger.Error(err))
		return c, err
	}
	return c, nil
}

func (r *tripRepo) Take(ctx context.Context, tripID, driverID int64) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE trips SET driver_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND (driver_id IS NULL OR driver_id = $2)
	`, tripID, driverID, models.TripStatusInProgress)
	if err != nil {
		r.log.Error("failed to take trip", logger.Int64("trip_id", tripID), logger.Int64("driver_id", driverID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *tripRepo) Release(ctx context.Context, tripID, driverID int64, status models.TripStatus) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE trips SET driver_id = NULL, status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND driver_id = $2
	`, tripID, driverID, status)
	if err != nil {
		r.log.Error("failed to release trip", logger.Int64("trip_id", tripID), logger.Int64("driver_id", driverID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *tripRepo) SetStatus(ctx context.Context, tripID, driverID int64, status models.TripStatus) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE trips SET status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND driver_id = $2
	`, tripID, driverID, status)
	if err != nil {
		r.log.Error("failed to set trip status", logger.Int64("trip_id", tripID), logger.String("status", string(status)), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *tripRepo) MarkNotified(ctx context.Context, tripID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trips SET notified = TRUE, notified_at = $2, notified_count = notified_count + 1
		WHERE id = $1
	`, tripID, at)
	if err != nil {
		r.log.Error("failed to mark trip notified", logger.Int64("trip_id", tripID), logger.Error(err))
	}
	return err
}

func (r *tripRepo) SetHasWaybill(ctx context.Context, tripID int64, has bool) error {
	_, err := r.db.Exec(ctx, `UPDATE trips SET has_waybill = $2 WHERE id = $1`, tripID, has)
	if err != nil {
		r.log.Error("failed to set has_waybill", logger.Int64("trip_id", tripID), logger.Error(err))
	}
	return err
}

func (r *tripRepo) Delete(ctx context.Context, tripID int64) error {
	res, err := r.db.Exec(ctx, `UPDATE trips SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, tripID)
	if err != nil {
		r.log.Error("failed to delete trip", logger.Int64("trip_id", tripID), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
