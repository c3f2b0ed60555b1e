package service

import (
	"context"
	"fmt"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/storage"
)

type ReminderService interface {
	// EnsureForTrip creates the first reminder for the trip's driver unless
	// an active one already exists. Reports whether a reminder was created.
	EnsureForTrip(ctx context.Context, trip *models.Trip) (bool, error)
	// Sweep sends every due reminder and returns how many were delivered.
	Sweep(ctx context.Context) (int, error)
	TripListener
}

type reminderService struct {
	stg  storage.IStorage
	gw   telegram.Gateway
	opts Options
	log  logger.ILogger
}

func NewReminderService(stg storage.IStorage, gw telegram.Gateway, opts Options, log logger.ILogger) ReminderService {
	opts.setDefaults()
	return &reminderService{stg: stg, gw: gw, opts: opts, log: log}
}

func (s *reminderService) EnsureForTrip(ctx context.Context, trip *models.Trip) (bool, error) {
	if trip.DriverID == nil {
		return false, nil
	}
	created, err := s.stg.Reminder().CreateIfAbsent(ctx, trip.ID, *trip.DriverID, s.opts.Now().Add(s.opts.ReminderInterval))
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("reminder scheduled", logger.Int64("trip_id", trip.ID), logger.Int64("driver_id", *trip.DriverID))
	}
	return created, nil
}

func (s *reminderService) Sweep(ctx context.Context) (int, error) {
	now := s.opts.Now()
	due, err := s.stg.Reminder().GetDue(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if s.sendOne(ctx, d) {
			sent++
		}
	}

	if len(due) > 0 {
		s.log.Info("reminder sweep finished", logger.Int("due", len(due)), logger.Int("sent", sent))
	}
	return sent, nil
}

func (s *reminderService) sendOne(ctx context.Context, d *models.DueReminder) bool {
	rm := d.Reminder
	log := s.log.With(
		logger.Int64("reminder_id", rm.ID),
		logger.Int64("trip_id", rm.TripID),
		logger.Int64("driver_id", rm.DriverID),
		logger.Int("attempt", rm.Attempt),
	)

	now := s.opts.Now()
	text := reminderText(&d.Trip, rm.Attempt, now.Sub(d.Trip.CreatedAt))
	_, err := s.gw.SendMessage(ctx, d.Driver.ChatID(), text, &telegram.SendOptions{
		ParseMode: telegram.ModeHTML,
		Keyboard:  takeKeyboard(d.Trip.ID),
	})
	if err != nil {
		metrics.RemindersFailed.Inc()
		log.Error("failed to send reminder, deactivating", logger.Error(err))
		if derr := s.stg.Reminder().Deactivate(ctx, rm.ID); derr != nil {
			log.Error("failed to deactivate reminder", logger.Error(derr))
		}
		return false
	}

	next := rm.Attempt + 1
	active := rm.Attempt < s.opts.ReminderMaxAttempts
	if err := s.stg.Reminder().Reschedule(ctx, rm.ID, now, now.Add(s.opts.ReminderInterval), next, active); err != nil {
		// left as is it stays due and the next sweep would repeat it
		log.Error("reminder sent but not rescheduled, deactivating", logger.Error(err))
		if derr := s.stg.Reminder().Deactivate(ctx, rm.ID); derr != nil {
			log.Error("failed to deactivate reminder", logger.Error(derr))
		}
	}

	metrics.RemindersSent.Inc()
	log.Info("reminder sent", logger.Bool("still_active", active))
	return true
}

func (s *reminderService) OnTripUpdated(ctx context.Context, e TripEvent) {
	var reason string
	switch {
	case e.DriverChanged():
		reason = "driver changed"
	case e.Left(models.TripStatusNew):
		reason = fmt.Sprintf("status changed to %s", e.New.Status)
	default:
		return
	}

	n, err := s.stg.Reminder().DeactivateForTrip(ctx, e.New.ID)
	if err != nil {
		s.log.Error("failed to deactivate reminders", logger.Int64("trip_id", e.New.ID), logger.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("reminders deactivated", logger.Int64("trip_id", e.New.ID), logger.Int64("count", n), logger.String("reason", reason))
	}
}
