package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
)

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect Redis", logger.Error(err))
		_ = client.Close()
		return nil, err
	}

	log.Info("Redis connected")
	return client, nil
}
