package memory

import (
	"context"
	"sync"
	"time"

	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

type PendingStore struct {
	mu    sync.Mutex
	items map[int64]models.PendingWaybill
	// Now is swappable so tests can move the clock past expires_at.
	Now func() time.Time
}

func NewPendingStore() *PendingStore {
	return &PendingStore{items: make(map[int64]models.PendingWaybill), Now: time.Now}
}

var _ storage.IPendingStorage = (*PendingStore)(nil)

func (p *PendingStore) Set(_ context.Context, w models.PendingWaybill) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[w.ChatID] = w
	return nil
}

func (p *PendingStore) Get(_ context.Context, chatID int64) (*models.PendingWaybill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.items[chatID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if w.Expired(p.Now()) {
		delete(p.items, chatID)
		return nil, storage.ErrNotFound
	}
	return &w, nil
}

func (p *PendingStore) Clear(_ context.Context, chatID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, chatID)
	return nil
}

type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

func (l *Locker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}
