package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"dispatchbot/pkg/models"
)

var ErrNotFound = errors.New("record not found")

type IStorage interface {
	Trip() ITripStorage
	Driver() IDriverStorage
	Reminder() IReminderStorage
	Waybill() IWaybillStorage
	Dispatcher() IDispatcherStorage
	Close()
}

type IDispatcherStorage interface {
	Create(ctx context.Context, d *models.Dispatcher) (*models.Dispatcher, error)
	GetByID(ctx context.Context, id int64) (*models.Dispatcher, error)
	GetAll(ctx context.Context) ([]*models.Dispatcher, error)
}

type ITripStorage interface {
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	// Update overwrites the dispatcher-editable fields, including status and driver.
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
	// GetDriverTrips returns newest first; no statuses means any status.
	GetDriverTrips(ctx context.Context, driverID int64, statuses []models.TripStatus, limit int) ([]*models.Trip, error)
	CountDriverTrips(ctx context.Context, driverID int64) (models.TripCounts, error)

	// Take assigns the trip to driverID and moves it to in_progress, but only
	// when the trip is unassigned or already assigned to driverID.
	Take(ctx context.Context, tripID, driverID int64) (bool, error)
	// Release unassigns the trip and sets status, only if driverID owns it.
	Release(ctx context.Context, tripID, driverID int64, status models.TripStatus) (bool, error)
	// SetStatus changes the status, only if driverID owns the trip.
	SetStatus(ctx context.Context, tripID, driverID int64, status models.TripStatus) (bool, error)

	MarkNotified(ctx context.Context, tripID int64, at time.Time) error
	SetHasWaybill(ctx context.Context, tripID int64, has bool) error
	Delete(ctx context.Context, tripID int64) error
}

type IDriverStorage interface {
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	// Update clears the chat binding when the username is empty.
	Update(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Driver, error)
	FindByUsername(ctx context.Context, username string) (*models.Driver, error)
	// FindByName does a case-insensitive substring match; lowest id wins.
	FindByName(ctx context.Context, part string) (*models.Driver, error)
	// BindChat sets chat id and username only if the driver has no chat yet.
	BindChat(ctx context.Context, driverID, chatID int64, username string) (bool, error)
}

type IReminderStorage interface {
	// CreateIfAbsent inserts an active reminder unless one already exists
	// for the (trip, driver) pair. Reports whether a row was created.
	CreateIfAbsent(ctx context.Context, tripID, driverID int64, nextDueAt time.Time) (bool, error)
	GetActive(ctx context.Context, tripID, driverID int64) (*models.Reminder, error)
	ListByTrip(ctx context.Context, tripID int64) ([]*models.Reminder, error)
	GetDue(ctx context.Context, now time.Time) ([]*models.DueReminder, error)
	Reschedule(ctx context.Context, id int64, sentAt, nextDueAt time.Time, attempt int, active bool) error
	Deactivate(ctx context.Context, id int64) error
	// DeactivateForTrip returns the number of reminders switched off.
	DeactivateForTrip(ctx context.Context, tripID int64) (int64, error)
}

type IWaybillStorage interface {
	Create(ctx context.Context, w *models.Waybill) (*models.Waybill, error)
	GetByTrip(ctx context.Context, tripID int64) ([]*models.Waybill, error)
	DeleteByTrip(ctx context.Context, tripID int64) error
}

// IPendingStorage keeps the short-lived "waiting for a waybill" association.
type IPendingStorage interface {
	Set(ctx context.Context, p models.PendingWaybill) error
	// Get returns ErrNotFound when there is no flag or it has expired.
	Get(ctx context.Context, chatID int64) (*models.PendingWaybill, error)
	Clear(ctx context.Context, chatID int64) error
}

// IBlobStorage stores files by relative path, e.g. "waybills/waybill_42_1700000000.pdf".
type IBlobStorage interface {
	Put(ctx context.Context, path string, r io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// ILocker guards jobs that must not overlap across processes.
type ILocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}
