// Command reminders runs a single reminder sweep; meant for an external cron.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/scheduler"
	"dispatchbot/pkg/telegram"
	"dispatchbot/service"
	"dispatchbot/storage/postgres"
	"dispatchbot/storage/redis"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-reminders", cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	gw, err := telegram.NewClient(cfg.TelegramBotToken, log)
	if err != nil {
		log.Error("Failed to initialize telegram bot", logger.Error(err))
		os.Exit(1)
	}

	reminders := service.NewReminderService(pgStore, gw, service.OptionsFromConfig(cfg, log), log)
	runner := scheduler.New("reminder-sweep", cfg.ReminderSweepInterval, reminders.Sweep, redis.NewLocker(rdb, log), log)

	sent, err := runner.RunOnce(ctx)
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		log.Info("another sweep is in progress, nothing to do")
	case err != nil:
		log.Error("reminder sweep failed", logger.Error(err))
		os.Exit(1)
	default:
		log.Info("reminder sweep done", logger.Int("sent", sent))
	}
}
