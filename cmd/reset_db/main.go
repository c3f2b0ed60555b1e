package main

import (
	"context"
	"fmt"
	"os"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)

	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// Dispatchers and drivers are reference data and survive a reset.
	_, err = pg.Pool().Exec(context.Background(), "TRUNCATE TABLE waybills, trip_reminders, trips RESTART IDENTITY CASCADE")
	if err != nil {
		log.Error(fmt.Sprintf("Failed to truncate tables: %v", err))
		os.Exit(1)
	}
	log.Info("Successfully truncated trips, reminders and waybills tables.")

	// Drivers re-bind their chats on the next message.
	if len(os.Args) > 1 && os.Args[1] == "--unbind" {
		tag, err := pg.Pool().Exec(context.Background(), "UPDATE drivers SET telegram_chat_id = NULL")
		if err != nil {
			log.Error(fmt.Sprintf("Failed to unbind drivers: %v", err))
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("Unbound %d drivers.", tag.RowsAffected()))
	}

	if err := os.RemoveAll(cfg.StoragePath + "/waybills"); err != nil {
		log.Warning("failed to remove stored waybills", logger.Error(err))
	}
}
