// Package memory is an in-process implementation of the storage interfaces.
// It backs the unit tests and local runs without Postgres or Redis.
package memory

import (
	"sync"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type Store struct {
	mu sync.Mutex

	trips     map[int64]*tripRow
	drivers   map[int64]*driverRow
	reminders map[int64]*reminderRow
	waybills  map[int64]*waybillRow

	dispatchers map[int64]*models.Dispatcher

	nextID int64
}

func New() *Store {
	return &Store{
		trips:     make(map[int64]*tripRow),
		drivers:   make(map[int64]*driverRow),
		reminders: make(map[int64]*reminderRow),
		waybills:  make(map[int64]*waybillRow),

		dispatchers: make(map[int64]*models.Dispatcher),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() {}

func (s *Store) Trip() storage.ITripStorage         { return &tripRepo{s} }
func (s *Store) Driver() storage.IDriverStorage     { return &driverRepo{s} }
func (s *Store) Reminder() storage.IReminderStorage { return &reminderRepo{s} }
func (s *Store) Waybill() storage.IWaybillStorage   { return &waybillRepo{s} }
func (s *Store) Dispatcher() storage.IDispatcherStorage {
	return &dispatcherRepo{s}
}

// withDispatcher mirrors the dispatchers join of the SQL store. Caller holds mu.
func (s *Store) withDispatcher(t *models.Trip) *models.Trip {
	t.DispatcherName, t.DispatcherPhone = "", ""
	if t.DispatcherID == nil {
		return t
	}
	if d, ok := s.dispatchers[*t.DispatcherID]; ok {
		t.DispatcherName, t.DispatcherPhone = d.Name, d.Phone
	}
	return t
}
