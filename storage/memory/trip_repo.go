package memory

import (
	"context"
	"sort"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type tripRow struct {
	models.Trip
}

type tripRepo struct {
	s *Store
}

func (r *tripRepo) live(id int64) (*tripRow, bool) {
	t, ok := r.s.trips[id]
	if !ok || t.DeletedAt != nil {
		return nil, false
	}
	return t, true
}

func (r *tripRepo) Create(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if trip.Status == "" {
		trip.Status = models.TripStatusNew
	}
	trip.ID = r.s.id()
	now := time.Now()
	trip.CreatedAt, trip.UpdatedAt = now, now
	r.s.trips[trip.ID] = &tripRow{Trip: *trip.Clone()}
	return trip, nil
}

func (r *tripRepo) Update(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(trip.ID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	next := trip.Clone()
	// bookkeeping columns are not dispatcher-editable
	next.HasWaybill = row.HasWaybill
	next.Notified, next.NotifiedAt, next.NotifiedCount = row.Notified, row.NotifiedAt, row.NotifiedCount
	next.CreatedAt = row.CreatedAt
	next.UpdatedAt = time.Now()
	row.Trip = *next
	trip.UpdatedAt = next.UpdatedAt
	return trip, nil
}

func (r *tripRepo) GetByID(_ context.Context, id int64) (*models.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.s.withDispatcher(row.Trip.Clone()), nil
}

func (r *tripRepo) GetDriverTrips(_ context.Context, driverID int64, statuses []models.TripStatus, limit int) ([]*models.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var out []*models.Trip
	for _, row := range r.s.trips {
		if row.DeletedAt != nil || !row.AssignedTo(driverID) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, row.Status) {
			continue
		}
		out = append(out, r.s.withDispatcher(row.Trip.Clone()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsStatus(list []models.TripStatus, s models.TripStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *tripRepo) CountDriverTrips(_ context.Context, driverID int64) (models.TripCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var c models.TripCounts
	for _, row := range r.s.trips {
		if row.DeletedAt != nil || !row.AssignedTo(driverID) {
			continue
		}
		c.Total++
		switch row.Status {
		case models.TripStatusNew:
			c.Available++
		case models.TripStatusInProgress:
			c.Active++
		}
	}
	return c, nil
}

func (r *tripRepo) Take(_ context.Context, tripID, driverID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(tripID)
	if !ok || (row.DriverID != nil && *row.DriverID != driverID) {
		return false, nil
	}
	id := driverID
	row.DriverID = &id
	row.Status = models.TripStatusInProgress
	row.UpdatedAt = time.Now()
	return true, nil
}

func (r *tripRepo) Release(_ context.Context, tripID, driverID int64, status models.TripStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(tripID)
	if !ok || !row.AssignedTo(driverID) {
		return false, nil
	}
	row.DriverID = nil
	row.Status = status
	row.UpdatedAt = time.Now()
	return true, nil
}

func (r *tripRepo) SetStatus(_ context.Context, tripID, driverID int64, status models.TripStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(tripID)
	if !ok || !row.AssignedTo(driverID) {
		return false, nil
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	return true, nil
}

func (r *tripRepo) MarkNotified(_ context.Context, tripID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.trips[tripID]
	if !ok {
		return storage.ErrNotFound
	}
	row.Notified = true
	row.NotifiedAt = &at
	row.NotifiedCount++
	return nil
}

func (r *tripRepo) SetHasWaybill(_ context.Context, tripID int64, has bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.trips[tripID]
	if !ok {
		return storage.ErrNotFound
	}
	row.HasWaybill = has
	return nil
}

func (r *tripRepo) Delete(_ context.Context, tripID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.live(tripID)
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now()
	row.DeletedAt = &now
	return nil
}
