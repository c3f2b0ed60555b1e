package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram/telegramtest"
	"dispatchbot/storage/memory"
)

const groupChat int64 = -100500

type fixture struct {
	stg     *memory.Store
	pending *memory.PendingStore
	blobs   *memory.BlobStore
	gw      *telegramtest.Recorder
	group   *telegramtest.Recorder
	svc     IServiceManager
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stg:     memory.New(),
		pending: memory.NewPendingStore(),
		blobs:   memory.NewBlobStore(),
		gw:      telegramtest.New(),
		group:   telegramtest.New(),
		now:     time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.pending.Now = f.clock
	f.svc = New(Deps{
		Storage: f.stg,
		Pending: f.pending,
		Blobs:   f.blobs,
		Gateway: f.gw,
		Group:   f.group,
		Options: Options{
			GroupChatID: groupChat,
			Now:         f.clock,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
	}, logger.NewNop())
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// driver creates a driver; chatID 0 leaves it unregistered.
func (f *fixture) driver(t *testing.T, name, username string, chatID int64) *models.Driver {
	t.Helper()
	d := &models.Driver{Name: name}
	if username != "" {
		d.TelegramUsername = &username
	}
	if chatID != 0 {
		d.TelegramChatID = &chatID
	}
	d, err := f.stg.Driver().Create(context.Background(), d)
	require.NoError(t, err)
	return d
}

func (f *fixture) trip(t *testing.T, driver *models.Driver, status models.TripStatus) *models.Trip {
	t.Helper()
	trip := &models.Trip{Name: "Вывоз мусора", Address: "ул. Ленина, 1", Status: status}
	if driver != nil {
		id := driver.ID
		trip.DriverID = &id
	}
	trip, err := f.svc.Trip().Create(context.Background(), trip)
	require.NoError(t, err)
	return trip
}

func (f *fixture) reminders(t *testing.T, tripID int64) []*models.Reminder {
	t.Helper()
	list, err := f.stg.Reminder().ListByTrip(context.Background(), tripID)
	require.NoError(t, err)
	return list
}

func activeCount(list []*models.Reminder) int {
	n := 0
	for _, rm := range list {
		if rm.Active {
			n++
		}
	}
	return n
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func nopLog() logger.ILogger { return logger.NewNop() }
