package memory

import (
	"context"
	"sort"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type reminderRow struct {
	models.Reminder
}

type reminderRepo struct {
	s *Store
}

func cloneReminder(rm models.Reminder) *models.Reminder {
	c := rm
	if rm.LastSentAt != nil {
		t := *rm.LastSentAt
		c.LastSentAt = &t
	}
	return &c
}

func (r *reminderRepo) byID() []*reminderRow {
	list := make([]*reminderRow, 0, len(r.s.reminders))
	for _, rm := range r.s.reminders {
		list = append(list, rm)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *reminderRepo) CreateIfAbsent(_ context.Context, tripID, driverID int64, nextDueAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rm := range r.s.reminders {
		if rm.Active && rm.TripID == tripID && rm.DriverID == driverID {
			return false, nil
		}
	}
	id := r.s.id()
	r.s.reminders[id] = &reminderRow{Reminder: models.Reminder{
		ID:        id,
		TripID:    tripID,
		DriverID:  driverID,
		Attempt:   1,
		NextDueAt: nextDueAt,
		Active:    true,
		CreatedAt: time.Now(),
	}}
	return true, nil
}

func (r *reminderRepo) GetActive(_ context.Context, tripID, driverID int64) (*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rm := range r.s.reminders {
		if rm.Active && rm.TripID == tripID && rm.DriverID == driverID {
			return cloneReminder(rm.Reminder), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *reminderRepo) ListByTrip(_ context.Context, tripID int64) ([]*models.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Reminder
	for _, rm := range r.byID() {
		if rm.TripID == tripID {
			out = append(out, cloneReminder(rm.Reminder))
		}
	}
	return out, nil
}

func (r *reminderRepo) GetDue(_ context.Context, now time.Time) ([]*models.DueReminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.DueReminder
	for _, rm := range r.byID() {
		if !rm.Active || rm.NextDueAt.After(now) {
			continue
		}
		trip, ok := r.s.trips[rm.TripID]
		if !ok || trip.DeletedAt != nil || trip.Status != models.TripStatusNew {
			continue
		}
		driver, ok := r.s.drivers[rm.DriverID]
		if !ok || driver.TelegramChatID == nil {
			continue
		}
		out = append(out, &models.DueReminder{
			Reminder: *cloneReminder(rm.Reminder),
			Trip:     *r.s.withDispatcher(trip.Trip.Clone()),
			Driver:   *cloneDriver(driver.Driver),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Reminder.NextDueAt.Before(out[j].Reminder.NextDueAt)
	})
	return out, nil
}

func (r *reminderRepo) Reschedule(_ context.Context, id int64, sentAt, nextDueAt time.Time, attempt int, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rm, ok := r.s.reminders[id]
	if !ok {
		return storage.ErrNotFound
	}
	rm.LastSentAt = &sentAt
	rm.NextDueAt = nextDueAt
	rm.Attempt = attempt
	rm.Active = active
	return nil
}

func (r *reminderRepo) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rm, ok := r.s.reminders[id]
	if !ok {
		return storage.ErrNotFound
	}
	rm.Active = false
	return nil
}

func (r *reminderRepo) DeactivateForTrip(_ context.Context, tripID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, rm := range r.s.reminders {
		if rm.TripID == tripID && rm.Active {
			rm.Active = false
			n++
		}
	}
	return n, nil
}
