package service

import (
	"context"
	"errors"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type DispatcherService interface {
	Create(ctx context.Context, d *models.Dispatcher) (*models.Dispatcher, error)
	Get(ctx context.Context, id int64) (*models.Dispatcher, error)
	List(ctx context.Context) ([]*models.Dispatcher, error)
}

type dispatcherService struct {
	stg storage.IDispatcherStorage
	log logger.ILogger
}

func NewDispatcherService(stg storage.IStorage, log logger.ILogger) DispatcherService {
	return &dispatcherService{stg: stg.Dispatcher(), log: log}
}

func (s *dispatcherService) Create(ctx context.Context, d *models.Dispatcher) (*models.Dispatcher, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, ErrNameRequired
	}
	return s.stg.Create(ctx, d)
}

func (s *dispatcherService) Get(ctx context.Context, id int64) (*models.Dispatcher, error) {
	d, err := s.stg.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDispatcherNotFound
	}
	return d, err
}

func (s *dispatcherService) List(ctx context.Context) ([]*models.Dispatcher, error) {
	return s.stg.GetAll(ctx)
}
