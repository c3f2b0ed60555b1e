package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type dispatcherRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDispatcherRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDispatcherStorage {
	return &dispatcherRepo{db: db, log: log}
}

func (r *dispatcherRepo) Create(ctx context.Context, d *models.Dispatcher) (*models.Dispatcher, error) {
	query := `
		INSERT INTO dispatchers (name, phone)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, d.Name, d.Phone).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		r.log.Error("failed to create dispatcher", logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *dispatcherRepo) GetByID(ctx context.Context, id int64) (*models.Dispatcher, error) {
	var d models.Dispatcher
	query := `SELECT id, name, phone, created_at FROM dispatchers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Phone, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get dispatcher by id", logger.Int64("dispatcher_id", id), logger.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *dispatcherRepo) GetAll(ctx context.Context) ([]*models.Dispatcher, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, phone, created_at FROM dispatchers ORDER BY name`)
	if err != nil {
		r.log.Error("failed to get dispatchers", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.Dispatcher
	for rows.Next() {
		var d models.Dispatcher
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}
