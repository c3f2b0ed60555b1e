package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/storage"
)

type Store struct {
	pool *pgxpool.Pool
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresDB,
	)

	cwd, _ := os.Getwd()
	return Connect(ctx, url, filepath.Join(cwd, "migrations"), log)
}

// Connect opens a pool for url and applies the migrations found in mPath.
func Connect(ctx context.Context, url, mPath string, log logger.ILogger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		log.Error("Postgres ping failed", logger.Error(err))
		pool.Close()
		return nil, err
	}

	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Warning("migration init error or no migrations found", logger.String("path", mPath), logger.Error(err))
	} else {
		if err = m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info("no migrations to apply")
			} else {
				log.Error("migration up error", logger.Error(err))
				pool.Close()
				return nil, err
			}
		}
		_, _ = m.Close()
	}

	log.Info("Postgres connected")

	return &Store{
		pool: pool,
		log:  log,
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Trip() storage.ITripStorage         { return NewTripRepo(s.pool, s.log) }
func (s *Store) Driver() storage.IDriverStorage     { return NewDriverRepo(s.pool, s.log) }
func (s *Store) Reminder() storage.IReminderStorage { return NewReminderRepo(s.pool, s.log) }
func (s *Store) Waybill() storage.IWaybillStorage   { return NewWaybillRepo(s.pool, s.log) }
func (s *Store) Dispatcher() storage.IDispatcherStorage {
	return NewDispatcherRepo(s.pool, s.log)
}
