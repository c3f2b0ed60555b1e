package service

import (
	"context"

	"dispatchbot/pkg/models"
)

// TripEvent carries the trip before and after a committed update.
type TripEvent struct {
	Old *models.Trip
	New *models.Trip
}

func (e TripEvent) StatusChanged() bool {
	return e.Old.Status != e.New.Status
}

func (e TripEvent) Left(status models.TripStatus) bool {
	return e.Old.Status == status && e.New.Status != status
}

func (e TripEvent) Became(status models.TripStatus) bool {
	return e.Old.Status != status && e.New.Status == status
}

func (e TripEvent) DriverChanged() bool {
	switch {
	case e.Old.DriverID == nil && e.New.DriverID == nil:
		return false
	case e.Old.DriverID == nil || e.New.DriverID == nil:
		return true
	}
	return *e.Old.DriverID != *e.New.DriverID
}

// Significant is false for updates that touched neither status nor driver.
func (e TripEvent) Significant() bool {
	return e.StatusChanged() || e.DriverChanged()
}

type TripListener interface {
	OnTripUpdated(ctx context.Context, e TripEvent)
}

type TripListenerFunc func(ctx context.Context, e TripEvent)

func (f TripListenerFunc) OnTripUpdated(ctx context.Context, e TripEvent) { f(ctx, e) }
