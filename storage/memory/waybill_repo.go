package memory

import (
	"context"
	"errors"
	"sort"

	"dispatchbot/pkg/models"
)

var errDuplicateChat = errors.New("telegram_chat_id already bound to another driver")

type waybillRow struct {
	models.Waybill
}

type waybillRepo struct {
	s *Store
}

func (r *waybillRepo) Create(_ context.Context, w *models.Waybill) (*models.Waybill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w.ID = r.s.id()
	r.s.waybills[w.ID] = &waybillRow{Waybill: *w}
	return w, nil
}

func (r *waybillRepo) GetByTrip(_ context.Context, tripID int64) ([]*models.Waybill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Waybill
	for _, w := range r.s.waybills {
		if w.TripID == tripID {
			c := w.Waybill
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *waybillRepo) DeleteByTrip(_ context.Context, tripID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, w := range r.s.waybills {
		if w.TripID == tripID {
			delete(r.s.waybills, id)
		}
	}
	return nil
}
