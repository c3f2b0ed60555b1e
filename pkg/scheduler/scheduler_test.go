package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/logger"
	"dispatchbot/storage/memory"
)

func TestRunOnceReturnsJobCount(t *testing.T) {
	r := New("reminders", time.Minute, func(ctx context.Context) (int, error) {
		return 3, nil
	}, memory.NewLocker(), logger.NewNop())

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunOnceDoesNotOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	r := New("reminders", time.Minute, func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 1, nil
	}, nil, logger.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.RunOnce(context.Background())
	}()

	<-started
	_, err := r.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	locker := memory.NewLocker()
	unlock, ok, err := locker.TryLock(context.Background(), "reminders", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ran := false
	r := New("reminders", time.Minute, func(ctx context.Context) (int, error) {
		ran = true
		return 0, nil
	}, locker, logger.NewNop())

	_, err = r.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.False(t, ran)

	unlock()
	_, err = r.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.True(t, ran)
}
