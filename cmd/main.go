package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dispatchbot/config"
	"dispatchbot/pkg/bot"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/scheduler"
	"dispatchbot/pkg/telegram"
	"dispatchbot/service"
	"dispatchbot/storage/disk"
	"dispatchbot/storage/postgres"
	"dispatchbot/storage/redis"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage: Postgres for records, Redis for short-lived state, disk for files
	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	rdb, err := redis.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer rdb.Close()

	blobs, err := disk.New(cfg.StoragePath, cfg.PublicBaseURL, log)
	if err != nil {
		log.Error("Failed to open blob storage", logger.Error(err))
		os.Exit(1)
	}

	// 4. Telegram clients: the driver-facing bot and the optional group bot
	gw, err := telegram.NewClient(cfg.TelegramBotToken, log)
	if err != nil {
		log.Error("Failed to initialize telegram bot", logger.Error(err))
		os.Exit(1)
	}

	var group telegram.Gateway
	if cfg.NotificationBotToken != "" && cfg.GroupChatID != 0 {
		groupClient, err := telegram.NewClient(cfg.NotificationBotToken, log)
		if err != nil {
			log.Error("Failed to initialize notification bot, group notices disabled", logger.Error(err))
		} else {
			group = groupClient
		}
	}

	// 5. Services
	svc := service.New(service.Deps{
		Storage: pgStore,
		Pending: redis.NewPendingRepo(rdb, log),
		Blobs:   blobs,
		Gateway: gw,
		Group:   group,
		Options: service.OptionsFromConfig(cfg, log),
	}, log)

	// 6. Reminder sweep in the background
	sweeper := scheduler.New("reminder-sweep", cfg.ReminderSweepInterval, svc.Reminder().Sweep, redis.NewLocker(rdb, log), log)
	go sweeper.Run(ctx)

	// 7. HTTP: webhook, admin API, metrics
	b := bot.New(&cfg, svc, gw, log)
	log.Info("🚀 Dispatch bot is running", logger.String("bot", gw.Username()), logger.Int("port", cfg.AppPort))

	if err := bot.RunServer(ctx, b); err != nil {
		log.Error("HTTP server failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("Shutting down...")
}
