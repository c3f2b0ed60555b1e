package service

import (
	"context"
	"errors"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/storage"
)

// Sender is the part of an inbound message used to recognise a driver.
type Sender struct {
	ChatID    int64
	Username  string
	FirstName string
}

type DriverService interface {
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	Update(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	Get(ctx context.Context, id int64) (*models.Driver, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Driver, error)
	// AutoRegister binds an unregistered driver to the sender's chat on first
	// contact. It returns the bound driver, or nil when nothing changed.
	AutoRegister(ctx context.Context, from Sender) (*models.Driver, error)
}

type driverService struct {
	stg storage.IDriverStorage
	gw  telegram.Gateway
	log logger.ILogger
}

func NewDriverService(stg storage.IStorage, gw telegram.Gateway, log logger.ILogger) DriverService {
	return &driverService{
		stg: stg.Driver(),
		gw:  gw,
		log: log,
	}
}

func (s *driverService) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	driver.Name = strings.TrimSpace(driver.Name)
	if driver.Name == "" {
		return nil, ErrNameRequired
	}
	return s.stg.Create(ctx, driver)
}

func (s *driverService) Update(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	d, err := s.stg.Update(ctx, driver)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	return d, err
}

func (s *driverService) Get(ctx context.Context, id int64) (*models.Driver, error) {
	d, err := s.stg.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	return d, err
}

func (s *driverService) GetByChatID(ctx context.Context, chatID int64) (*models.Driver, error) {
	d, err := s.stg.GetByChatID(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	return d, err
}

func (s *driverService) match(ctx context.Context, from Sender) (*models.Driver, error) {
	if from.Username != "" {
		d, err := s.stg.FindByUsername(ctx, from.Username)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		return nil, storage.ErrNotFound
	}
	// Several drivers may share a first name; the oldest record wins.
	return s.stg.FindByName(ctx, name)
}

func (s *driverService) AutoRegister(ctx context.Context, from Sender) (*models.Driver, error) {
	if _, err := s.stg.GetByChatID(ctx, from.ChatID); err == nil {
		return nil, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	driver, err := s.match(ctx, from)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if driver.IsRegistered() {
		return nil, nil
	}

	bound, err := s.stg.BindChat(ctx, driver.ID, from.ChatID, from.Username)
	if err != nil || !bound {
		return nil, err
	}

	chatID := from.ChatID
	driver.TelegramChatID = &chatID
	if from.Username != "" {
		u := from.Username
		driver.TelegramUsername = &u
	}

	s.log.Info("driver auto-registered",
		logger.Int64("driver_id", driver.ID),
		logger.String("name", driver.Name),
		logger.Int64("chat_id", from.ChatID),
	)

	if _, err := s.gw.SendMessage(ctx, from.ChatID, welcomeText(driver), &telegram.SendOptions{ParseMode: telegram.ModeHTML}); err != nil {
		s.log.Error("failed to send welcome message", logger.Int64("chat_id", from.ChatID), logger.Error(err))
	}
	return driver, nil
}
