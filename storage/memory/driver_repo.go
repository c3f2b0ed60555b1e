package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type driverRow struct {
	models.Driver
}

type driverRepo struct {
	s *Store
}

func cloneDriver(d models.Driver) *models.Driver {
	c := d
	if d.TelegramUsername != nil {
		u := *d.TelegramUsername
		c.TelegramUsername = &u
	}
	if d.TelegramChatID != nil {
		id := *d.TelegramChatID
		c.TelegramChatID = &id
	}
	return &c
}

func normalizeBinding(d *models.Driver) {
	if d.TelegramUsername == nil || strings.TrimSpace(*d.TelegramUsername) == "" {
		d.TelegramUsername = nil
		d.TelegramChatID = nil
	}
}

// sorted returns drivers by ascending id so "first match" is stable.
func (r *driverRepo) sorted() []*driverRow {
	list := make([]*driverRow, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *driverRepo) chatTaken(chatID *int64, except int64) bool {
	if chatID == nil {
		return false
	}
	for _, d := range r.s.drivers {
		if d.ID != except && d.TelegramChatID != nil && *d.TelegramChatID == *chatID {
			return true
		}
	}
	return false
}

func (r *driverRepo) Create(_ context.Context, d *models.Driver) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	normalizeBinding(d)
	if r.chatTaken(d.TelegramChatID, 0) {
		return nil, errDuplicateChat
	}
	d.ID = r.s.id()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.s.drivers[d.ID] = &driverRow{Driver: *cloneDriver(*d)}
	return d, nil
}

func (r *driverRepo) Update(_ context.Context, d *models.Driver) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.drivers[d.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	normalizeBinding(d)
	if r.chatTaken(d.TelegramChatID, d.ID) {
		return nil, errDuplicateChat
	}
	d.CreatedAt = row.CreatedAt
	d.UpdatedAt = time.Now()
	row.Driver = *cloneDriver(*d)
	return d, nil
}

func (r *driverRepo) find(match func(*driverRow) bool) (*models.Driver, error) {
	for _, d := range r.sorted() {
		if match(d) {
			return cloneDriver(d.Driver), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *driverRepo) GetByID(_ context.Context, id int64) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.find(func(d *driverRow) bool { return d.ID == id })
}

func (r *driverRepo) GetByChatID(_ context.Context, chatID int64) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.find(func(d *driverRow) bool { return d.TelegramChatID != nil && *d.TelegramChatID == chatID })
}

func (r *driverRepo) FindByUsername(_ context.Context, username string) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	username = strings.TrimPrefix(username, "@")
	return r.find(func(d *driverRow) bool {
		return d.TelegramUsername != nil && strings.EqualFold(*d.TelegramUsername, username)
	})
}

func (r *driverRepo) FindByName(_ context.Context, part string) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	part = strings.ToLower(part)
	return r.find(func(d *driverRow) bool {
		return strings.Contains(strings.ToLower(d.Name), part)
	})
}

func (r *driverRepo) BindChat(_ context.Context, driverID, chatID int64, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.drivers[driverID]
	if !ok || row.TelegramChatID != nil {
		return false, nil
	}
	if r.chatTaken(&chatID, driverID) {
		return false, errDuplicateChat
	}
	id := chatID
	row.TelegramChatID = &id
	if username != "" {
		u := username
		row.TelegramUsername = &u
	}
	row.UpdatedAt = time.Now()
	return true, nil
}
