package service

import (
	"context"
	"errors"
	"fmt"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/storage"
)

type NotificationService interface {
	// NotifyDriver is the dispatcher's "send to driver" action.
	NotifyDriver(ctx context.Context, tripID int64) error
	TripListener
}

type notificationService struct {
	stg       storage.IStorage
	blobs     storage.IBlobStorage
	gw        telegram.Gateway
	reminders ReminderService
	group     GroupNotifier
	opts      Options
	log       logger.ILogger
}

func NewNotificationService(
	stg storage.IStorage,
	blobs storage.IBlobStorage,
	gw telegram.Gateway,
	reminders ReminderService,
	group GroupNotifier,
	opts Options,
	log logger.ILogger,
) NotificationService {
	opts.setDefaults()
	return &notificationService{
		stg:       stg,
		blobs:     blobs,
		gw:        gw,
		reminders: reminders,
		group:     group,
		opts:      opts,
		log:       log,
	}
}

func (s *notificationService) assignedDriver(ctx context.Context, trip *models.Trip) (*models.Driver, error) {
	if trip.DriverID == nil {
		return nil, ErrDriverNotRegistered
	}
	driver, err := s.stg.Driver().GetByID(ctx, *trip.DriverID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if !driver.IsRegistered() {
		return nil, ErrDriverNotRegistered
	}
	return driver, nil
}

func (s *notificationService) NotifyDriver(ctx context.Context, tripID int64) error {
	trip, err := s.stg.Trip().GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTripNotFound
		}
		return err
	}
	driver, err := s.assignedDriver(ctx, trip)
	if err != nil {
		s.log.Warning("cannot notify driver", logger.Int64("trip_id", tripID), logger.Error(err))
		return err
	}

	log := s.log.With(logger.Int64("trip_id", trip.ID), logger.Int64("driver_id", driver.ID))

	opts := &telegram.SendOptions{ParseMode: telegram.ModeHTML}
	var text string
	if trip.Status == models.TripStatusNew {
		text = firstNotificationText(trip)
		opts.Keyboard = takeKeyboard(trip.ID)
	} else {
		text = updateNotificationText(trip)
		if trip.Status == models.TripStatusInProgress {
			opts.Keyboard = takeKeyboard(trip.ID)
		}
	}

	if _, err := s.gw.SendMessage(ctx, driver.ChatID(), text, opts); err != nil {
		log.Error("failed to send trip notification", logger.Error(err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.sendAttachments(ctx, trip, driver)

	if trip.Status == models.TripStatusNew {
		if _, err := s.reminders.EnsureForTrip(ctx, trip); err != nil {
			log.Error("failed to schedule reminder", logger.Error(err))
		}
	}

	if err := s.stg.Trip().MarkNotified(ctx, trip.ID, s.opts.Now()); err != nil {
		return err
	}

	log.Info("driver notified", logger.String("status", string(trip.Status)), logger.Int("documents", len(trip.Documents)))
	return nil
}

// sendAttachments delivers trip documents one by one with a pause between
// sends. Missing or failing files are skipped.
func (s *notificationService) sendAttachments(ctx context.Context, trip *models.Trip, driver *models.Driver) int {
	sent := 0
	for _, doc := range trip.Documents {
		if doc.Path == "" {
			s.log.Warning("attachment without path", logger.Int64("trip_id", trip.ID))
			continue
		}
		if sent > 0 {
			if err := s.opts.Sleep(ctx, s.opts.AttachmentDelay); err != nil {
				return sent
			}
		}
		if s.sendAttachment(ctx, trip, driver, doc) {
			sent++
		}
	}
	if len(trip.Documents) > 0 {
		s.log.Info("attachments processed",
			logger.Int64("trip_id", trip.ID),
			logger.Int("total", len(trip.Documents)),
			logger.Int("sent", sent),
		)
	}
	return sent
}

func (s *notificationService) sendAttachment(ctx context.Context, trip *models.Trip, driver *models.Driver, doc models.Attachment) bool {
	rc, size, err := s.blobs.Open(ctx, doc.Path)
	if err != nil {
		s.log.Warning("attachment file not found, skipping", logger.Int64("trip_id", trip.ID), logger.String("path", doc.Path), logger.Error(err))
		return false
	}
	defer rc.Close()

	name := doc.Name
	if name == "" {
		name = doc.Path
	}
	upload := telegram.Upload{Name: name, Reader: rc, Caption: attachmentCaption(trip.ID, doc, size)}
	if doc.IsImage() {
		_, err = s.gw.SendPhoto(ctx, driver.ChatID(), upload, nil)
	} else {
		_, err = s.gw.SendDocument(ctx, driver.ChatID(), upload, nil)
	}
	if err != nil {
		s.log.Error("failed to send attachment", logger.Int64("trip_id", trip.ID), logger.String("path", doc.Path), logger.Error(err))
		return false
	}
	return true
}

func (s *notificationService) OnTripUpdated(ctx context.Context, e TripEvent) {
	switch {
	case e.Became(models.TripStatusCancelled):
		s.onCancelled(ctx, e)
	case e.Became(models.TripStatusRepair):
		driver := s.driverOf(ctx, e)
		s.group.TripRepair(ctx, e.New, driver)
	}
}

func (s *notificationService) driverOf(ctx context.Context, e TripEvent) *models.Driver {
	id := e.New.DriverID
	if id == nil {
		id = e.Old.DriverID
	}
	if id == nil {
		return nil
	}
	driver, err := s.stg.Driver().GetByID(ctx, *id)
	if err != nil {
		s.log.Warning("trip driver lookup failed", logger.Int64("trip_id", e.New.ID), logger.Error(err))
		return nil
	}
	return driver
}

func (s *notificationService) onCancelled(ctx context.Context, e TripEvent) {
	driver := s.driverOf(ctx, e)
	if driver != nil && driver.IsRegistered() {
		_, err := s.gw.SendMessage(ctx, driver.ChatID(), cancellationText(e.New), &telegram.SendOptions{ParseMode: telegram.ModeHTML})
		if err != nil {
			s.log.Error("failed to send cancellation", logger.Int64("trip_id", e.New.ID), logger.Int64("driver_id", driver.ID), logger.Error(err))
		} else {
			s.log.Info("cancellation sent", logger.Int64("trip_id", e.New.ID), logger.Int64("driver_id", driver.ID))
		}
	}
	s.group.TripCancelled(ctx, e.New, driver)
}
