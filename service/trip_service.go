package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type TripService interface {
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	// Update saves dispatcher edits and publishes the transition to listeners.
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	Get(ctx context.Context, id int64) (*models.Trip, error)
	DriverTrips(ctx context.Context, driverID int64, statuses []models.TripStatus, limit int) ([]*models.Trip, error)
	Counts(ctx context.Context, driverID int64) (models.TripCounts, error)

	Take(ctx context.Context, tripID, driverID int64) (*models.Trip, error)
	Reject(ctx context.Context, tripID, driverID int64) (*models.Trip, error)
	ChangeStatus(ctx context.Context, tripID, driverID int64, status models.TripStatus) (*models.Trip, error)

	// Delete soft-deletes the trip and removes its waybills, blobs and reminders.
	Delete(ctx context.Context, tripID int64) error
	Subscribe(l TripListener)
}

type tripService struct {
	stg   storage.IStorage
	blobs storage.IBlobStorage
	log   logger.ILogger

	mu        sync.RWMutex
	listeners []TripListener
}

func NewTripService(stg storage.IStorage, blobs storage.IBlobStorage, log logger.ILogger) TripService {
	return &tripService{stg: stg, blobs: blobs, log: log}
}

func (s *tripService) Subscribe(l TripListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *tripService) publish(ctx context.Context, old, cur *models.Trip) {
	e := TripEvent{Old: old, New: cur}
	if !e.Significant() {
		return
	}
	s.log.Info("trip updated",
		logger.Int64("trip_id", cur.ID),
		logger.String("old_status", string(old.Status)),
		logger.String("new_status", string(cur.Status)),
	)

	s.mu.RLock()
	listeners := append([]TripListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.OnTripUpdated(ctx, e)
	}
}

func (s *tripService) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if trip.Status != "" && !trip.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.stg.Trip().Create(ctx, trip)
}

func (s *tripService) Get(ctx context.Context, id int64) (*models.Trip, error) {
	trip, err := s.stg.Trip().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *tripService) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if !trip.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	old, err := s.Get(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.stg.Trip().Update(ctx, trip); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	cur, err := s.Get(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, old, cur)
	return cur, nil
}

func (s *tripService) DriverTrips(ctx context.Context, driverID int64, statuses []models.TripStatus, limit int) ([]*models.Trip, error) {
	return s.stg.Trip().GetDriverTrips(ctx, driverID, statuses, limit)
}

func (s *tripService) Counts(ctx context.Context, driverID int64) (models.TripCounts, error) {
	return s.stg.Trip().CountDriverTrips(ctx, driverID)
}

// mutate runs a conditional update and turns a miss into a domain error.
func (s *tripService) mutate(ctx context.Context, tripID int64, miss error, fn func() (bool, error)) (*models.Trip, error) {
	old, err := s.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	ok, err := fn()
	if err != nil {
		return nil, err
	}
	if !ok {
		// Tell "gone" apart from "someone else's".
		if _, err := s.Get(ctx, tripID); err != nil {
			return nil, err
		}
		return nil, miss
	}
	cur, err := s.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, old, cur)
	return cur, nil
}

func (s *tripService) Take(ctx context.Context, tripID, driverID int64) (*models.Trip, error) {
	return s.mutate(ctx, tripID, ErrTripTaken, func() (bool, error) {
		return s.stg.Trip().Take(ctx, tripID, driverID)
	})
}

func (s *tripService) Reject(ctx context.Context, tripID, driverID int64) (*models.Trip, error) {
	return s.mutate(ctx, tripID, ErrNotTripOwner, func() (bool, error) {
		return s.stg.Trip().Release(ctx, tripID, driverID, models.TripStatusRejected)
	})
}

func (s *tripService) ChangeStatus(ctx context.Context, tripID, driverID int64, status models.TripStatus) (*models.Trip, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.mutate(ctx, tripID, ErrNotTripOwner, func() (bool, error) {
		return s.stg.Trip().SetStatus(ctx, tripID, driverID, status)
	})
}

func (s *tripService) Delete(ctx context.Context, tripID int64) error {
	if _, err := s.Get(ctx, tripID); err != nil {
		return err
	}

	waybills, err := s.stg.Waybill().GetByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	for _, w := range waybills {
		if err := s.blobs.Delete(ctx, w.FilePath); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("delete waybill blob %s: %w", w.FilePath, err)
			}
			s.log.Warning("waybill blob already missing", logger.Int64("trip_id", tripID), logger.String("path", w.FilePath))
		}
	}
	if err := s.stg.Waybill().DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	if _, err := s.stg.Reminder().DeactivateForTrip(ctx, tripID); err != nil {
		return err
	}
	if err := s.stg.Trip().Delete(ctx, tripID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTripNotFound
		}
		return err
	}

	s.log.Info("trip deleted", logger.Int64("trip_id", tripID), logger.Int("waybills", len(waybills)))
	return nil
}
