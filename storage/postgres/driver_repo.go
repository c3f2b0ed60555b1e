package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

const driverColumns = `id, name, phone, comment, telegram_username, telegram_chat_id, created_at, updated_at`

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func scanDriver(row pgx.Row, d *models.Driver) error {
	return row.Scan(&d.ID, &d.Name, &d.Phone, &d.Comment, &d.TelegramUsername, &d.TelegramChatID, &d.CreatedAt, &d.UpdatedAt)
}

// normalizeBinding drops the chat id when the username is blank.
func normalizeBinding(d *models.Driver) {
	if d.TelegramUsername == nil || strings.TrimSpace(*d.TelegramUsername) == "" {
		d.TelegramUsername = nil
		d.TelegramChatID = nil
	}
}

func (r *driverRepo) Create(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	normalizeBinding(d)
	query := `
		INSERT INTO drivers (name, phone, comment, telegram_username, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, d.Name, d.Phone, d.Comment, d.TelegramUsername, d.TelegramChatID).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create driver", logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *driverRepo) Update(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	normalizeBinding(d)
	query := `
		UPDATE drivers
		SET name = $1, phone = $2, comment = $3, telegram_username = $4, telegram_chat_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, d.Name, d.Phone, d.Comment, d.TelegramUsername, d.TelegramChatID, d.ID).
		Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to update driver", logger.Int64("driver_id", d.ID), logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *driverRepo) getOne(ctx context.Context, msg, where string, args ...interface{}) (*models.Driver, error) {
	var d models.Driver
	err := scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE `+where, args...), &d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		r.log.Error(msg, logger.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	return r.getOne(ctx, "failed to get driver by id", `id = $1`, id)
}

func (r *driverRepo) GetByChatID(ctx context.Context, chatID int64) (*models.Driver, error) {
	return r.getOne(ctx, "failed to get driver by chat id", `telegram_chat_id = $1`, chatID)
}

func (r *driverRepo) FindByUsername(ctx context.Context, username string) (*models.Driver, error) {
	return r.getOne(ctx, "failed to find driver by username",
		`lower(telegram_username) = lower($1) ORDER BY id LIMIT 1`, strings.TrimPrefix(username, "@"))
}

func (r *driverRepo) FindByName(ctx context.Context, part string) (*models.Driver, error) {
	return r.getOne(ctx, "failed to find driver by name",
		`name ILIKE '%' || $1 || '%' ORDER BY id LIMIT 1`, escapeLike(part))
}

func (r *driverRepo) BindChat(ctx context.Context, driverID, chatID int64, username string) (bool, error) {
	var uname *string
	if username != "" {
		uname = &username
	}
	res, err := r.db.Exec(ctx, `
		UPDATE drivers SET telegram_chat_id = $2, telegram_username = COALESCE($3, telegram_username), updated_at = NOW()
		WHERE id = $1 AND telegram_chat_id IS NULL
	`, driverID, chatID, uname)
	if err != nil {
		r.log.Error("failed to bind driver chat", logger.Int64("driver_id", driverID), logger.Int64("chat_id", chatID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
