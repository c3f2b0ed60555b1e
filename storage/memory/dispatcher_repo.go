package memory

import (
	"context"
	"sort"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type dispatcherRepo struct {
	s *Store
}

func (r *dispatcherRepo) Create(_ context.Context, d *models.Dispatcher) (*models.Dispatcher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d.ID = r.s.id()
	d.CreatedAt = time.Now()
	c := *d
	r.s.dispatchers[d.ID] = &c
	return d, nil
}

func (r *dispatcherRepo) GetByID(_ context.Context, id int64) (*models.Dispatcher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.dispatchers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *dispatcherRepo) GetAll(_ context.Context) ([]*models.Dispatcher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Dispatcher, 0, len(r.s.dispatchers))
	for _, d := range r.s.dispatchers {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
