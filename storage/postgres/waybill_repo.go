package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type waybillRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewWaybillRepo(db *pgxpool.Pool, log logger.ILogger) storage.IWaybillStorage {
	return &waybillRepo{db: db, log: log}
}

func (r *waybillRepo) Create(ctx context.Context, w *models.Waybill) (*models.Waybill, error) {
	query := `
		INSERT INTO waybills (trip_id, driver_id, file_path, file_name, original_name, file_size, mime_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		w.TripID,
		w.DriverID,
		w.FilePath,
		w.FileName,
		w.OriginalName,
		w.FileSize,
		w.MimeType,
		w.UploadedAt,
	).Scan(&w.ID)
	if err != nil {
		r.log.Error("failed to create waybill", logger.Int64("trip_id", w.TripID), logger.Error(err))
		return nil, err
	}
	return w, nil
}

func (r *waybillRepo) GetByTrip(ctx context.Context, tripID int64) ([]*models.Waybill, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trip_id, driver_id, file_path, file_name, original_name, file_size, mime_type, uploaded_at
		FROM waybills WHERE trip_id = $1 ORDER BY id
	`, tripID)
	if err != nil {
		r.log.Error("failed to get waybills", logger.Int64("trip_id", tripID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.Waybill
	for rows.Next() {
		var w models.Waybill
		err := rows.Scan(&w.ID, &w.TripID, &w.DriverID, &w.FilePath, &w.FileName, &w.OriginalName, &w.FileSize, &w.MimeType, &w.UploadedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func (r *waybillRepo) DeleteByTrip(ctx context.Context, tripID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM waybills WHERE trip_id = $1`, tripID)
	if err != nil {
		r.log.Error("failed to delete waybills", logger.Int64("trip_id", tripID), logger.Error(err))
	}
	return err
}
