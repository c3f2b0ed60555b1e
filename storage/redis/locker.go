package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"dispatchbot/pkg/logger"
	"dispatchbot/storage"
)

// Deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type locker struct {
	rdb *redis.Client
	log logger.ILogger
}

func NewLocker(rdb *redis.Client, log logger.ILogger) storage.ILocker {
	return &locker{rdb: rdb, log: log}
}

func (l *locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		l.log.Error("failed to acquire lock", logger.String("key", key), logger.Error(err))
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// Release even if the caller's context is already done.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.rdb, []string{"lock:" + key}, token).Err(); err != nil {
			l.log.Warning("failed to release lock", logger.String("key", key), logger.Error(err))
		}
	}
	return unlock, true, nil
}
