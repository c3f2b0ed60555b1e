package service

import (
	"context"
	"time"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/storage"
)

type IServiceManager interface {
	Trip() TripService
	Driver() DriverService
	Reminder() ReminderService
	Notification() NotificationService
	Waybill() WaybillService
	Group() GroupNotifier
	Dispatcher() DispatcherService
}

type Options struct {
	ReminderInterval    time.Duration
	ReminderMaxAttempts int
	WaybillWaitTTL      time.Duration
	AttachmentDelay     time.Duration

	GroupChatID   int64
	GroupLocation *time.Location

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// OptionsFromConfig maps the environment configuration onto service options.
func OptionsFromConfig(cfg config.Config, log logger.ILogger) Options {
	loc, err := time.LoadLocation(cfg.GroupTimezone)
	if err != nil {
		log.Warning("unknown group timezone, using UTC", logger.String("tz", cfg.GroupTimezone), logger.Error(err))
		loc = time.UTC
	}
	return Options{
		ReminderInterval:    cfg.ReminderInterval,
		ReminderMaxAttempts: cfg.ReminderMaxAttempts,
		WaybillWaitTTL:      cfg.WaybillWaitTTL,
		AttachmentDelay:     cfg.AttachmentDelay,
		GroupChatID:         cfg.GroupChatID,
		GroupLocation:       loc,
	}
}

func (o *Options) setDefaults() {
	if o.ReminderInterval <= 0 {
		o.ReminderInterval = models.DefaultReminderInterval
	}
	if o.ReminderMaxAttempts <= 0 {
		o.ReminderMaxAttempts = models.DefaultReminderMaxAttempts
	}
	if o.WaybillWaitTTL <= 0 {
		o.WaybillWaitTTL = 5 * time.Minute
	}
	if o.AttachmentDelay < 0 {
		o.AttachmentDelay = 0
	}
	if o.GroupLocation == nil {
		o.GroupLocation = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Deps struct {
	Storage storage.IStorage
	Pending storage.IPendingStorage
	Blobs   storage.IBlobStorage
	Gateway telegram.Gateway
	// Group posts into the dispatchers' chat; nil disables group notices.
	Group   telegram.Gateway
	Options Options
}

type service struct {
	tripService         TripService
	driverService       DriverService
	reminderService     ReminderService
	notificationService NotificationService
	waybillService      WaybillService
	groupNotifier       GroupNotifier
	dispatcherService   DispatcherService
}

func New(deps Deps, log logger.ILogger) IServiceManager {
	opts := deps.Options
	opts.setDefaults()

	group := NewGroupNotifier(deps.Group, opts, log)
	trips := NewTripService(deps.Storage, deps.Blobs, log)
	reminders := NewReminderService(deps.Storage, deps.Gateway, opts, log)
	notifications := NewNotificationService(deps.Storage, deps.Blobs, deps.Gateway, reminders, group, opts, log)

	trips.Subscribe(reminders)
	trips.Subscribe(notifications)

	return &service{
		tripService:         trips,
		driverService:       NewDriverService(deps.Storage, deps.Gateway, log),
		reminderService:     reminders,
		notificationService: notifications,
		waybillService:      NewWaybillService(deps.Storage, deps.Pending, deps.Blobs, deps.Gateway, group, opts, log),
		groupNotifier:       group,
		dispatcherService:   NewDispatcherService(deps.Storage, log),
	}
}

func (s *service) Trip() TripService                 { return s.tripService }
func (s *service) Driver() DriverService             { return s.driverService }
func (s *service) Reminder() ReminderService         { return s.reminderService }
func (s *service) Notification() NotificationService { return s.notificationService }
func (s *service) Waybill() WaybillService           { return s.waybillService }
func (s *service) Group() GroupNotifier              { return s.groupNotifier }
func (s *service) Dispatcher() DispatcherService     { return s.dispatcherService }
