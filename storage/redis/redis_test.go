package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("DISPATCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DISPATCH_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestPendingRepo(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	repo := NewPendingRepo(rdb, logger.NewNop())
	const chat int64 = 987654321
	t.Cleanup(func() { _ = repo.Clear(ctx, chat) })

	_, err := repo.Get(ctx, chat)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.Set(ctx, models.PendingWaybill{ChatID: chat, TripID: 42, ExpiresAt: time.Now().Add(time.Minute)}))
	p, err := repo.Get(ctx, chat)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.TripID)

	ttl, err := rdb.TTL(ctx, pendingKey(chat)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	// setting an already expired flag clears it
	require.NoError(t, repo.Set(ctx, models.PendingWaybill{ChatID: chat, TripID: 43, ExpiresAt: time.Now().Add(-time.Second)}))
	_, err = repo.Get(ctx, chat)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLockerIsExclusive(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	l := NewLocker(rdb, logger.NewNop())

	unlock, ok, err := l.TryLock(ctx, "test-sweep", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "test-sweep", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	unlock2, ok, err := l.TryLock(ctx, "test-sweep", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock2()
}
