package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

// testStore connects to DISPATCH_TEST_PG_DSN, migrates and wipes the schema.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DISPATCH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DISPATCH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, dsn, "../../migrations", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Pool().Exec(ctx, `TRUNCATE waybills, trip_reminders, trips, drivers, dispatchers RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func newDriver(t *testing.T, s *Store, name string) *models.Driver {
	t.Helper()
	d, err := s.Driver().Create(context.Background(), &models.Driver{Name: name})
	require.NoError(t, err)
	return d
}

func TestTakeIsConditional(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	a := newDriver(t, s, "Иван")
	b := newDriver(t, s, "Пётр")
	trip, err := s.Trip().Create(ctx, &models.Trip{Name: "Рейс"})
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusNew, trip.Status)

	ok, err := s.Trip().Take(ctx, trip.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Trip().Take(ctx, trip.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Trip().GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, got.AssignedTo(a.ID))
	assert.Equal(t, models.TripStatusInProgress, got.Status)

	ok, err = s.Trip().Release(ctx, trip.ID, b.ID, models.TripStatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBindChatOnlyOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	d := newDriver(t, s, "Иван Петров")

	found, err := s.Driver().FindByName(ctx, "иван")
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	ok, err := s.Driver().BindChat(ctx, d.ID, 1001, "ivan")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Driver().BindChat(ctx, d.ID, 2002, "")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Driver().GetByChatID(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, got.TelegramUsername)
	assert.Equal(t, "ivan", *got.TelegramUsername)

	_, err = s.Driver().FindByName(ctx, "%")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReminderLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	chat, handle := int64(1001), "ivan"
	d, err := s.Driver().Create(ctx, &models.Driver{Name: "Иван", TelegramUsername: &handle, TelegramChatID: &chat})
	require.NoError(t, err)
	trip, err := s.Trip().Create(ctx, &models.Trip{Name: "Рейс", DriverID: &d.ID})
	require.NoError(t, err)

	due := time.Now().Add(-time.Minute)
	created, err := s.Reminder().CreateIfAbsent(ctx, trip.ID, d.ID, due)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Reminder().CreateIfAbsent(ctx, trip.ID, d.ID, due)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := s.Reminder().GetDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, list, 1)

	n, err := s.Reminder().DeactivateForTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	created, err = s.Reminder().CreateIfAbsent(ctx, trip.ID, d.ID, due)
	require.NoError(t, err)
	assert.True(t, created, "a fresh reminder is allowed once the old one is inactive")
}

func TestDeleteIsSoft(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	trip, err := s.Trip().Create(ctx, &models.Trip{Name: "Рейс"})
	require.NoError(t, err)

	require.NoError(t, s.Trip().Delete(ctx, trip.ID))
	_, err = s.Trip().GetByID(ctx, trip.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.Trip().Delete(ctx, trip.ID), storage.ErrNotFound)
}
