package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/models"
	"dispatchbot/storage"
)

const pendingKeyPrefix = "waiting_waybill:"

type pendingRepo struct {
	rdb *redis.Client
	log logger.ILogger
	now func() time.Time
}

func NewPendingRepo(rdb *redis.Client, log logger.ILogger) storage.IPendingStorage {
	return &pendingRepo{rdb: rdb, log: log, now: time.Now}
}

func pendingKey(chatID int64) string {
	return pendingKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *pendingRepo) Set(ctx context.Context, p models.PendingWaybill) error {
	ttl := p.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Clear(ctx, p.ChatID)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, pendingKey(p.ChatID), raw, ttl).Err(); err != nil {
		r.log.Error("failed to set pending waybill", logger.Int64("chat_id", p.ChatID), logger.Error(err))
		return err
	}
	return nil
}

func (r *pendingRepo) Get(ctx context.Context, chatID int64) (*models.PendingWaybill, error) {
	raw, err := r.rdb.Get(ctx, pendingKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		r.log.Error("failed to get pending waybill", logger.Int64("chat_id", chatID), logger.Error(err))
		return nil, err
	}

	var p models.PendingWaybill
	if err := json.Unmarshal(raw, &p); err != nil {
		r.log.Warning("corrupt pending waybill entry", logger.Int64("chat_id", chatID), logger.Error(err))
		return nil, storage.ErrNotFound
	}
	// The key TTL and expires_at normally agree; expires_at is authoritative.
	if p.Expired(r.now()) {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (r *pendingRepo) Clear(ctx context.Context, chatID int64) error {
	if err := r.rdb.Del(ctx, pendingKey(chatID)).Err(); err != nil {
		r.log.Error("failed to clear pending waybill", logger.Int64("chat_id", chatID), logger.Error(err))
		return err
	}
	return nil
}
