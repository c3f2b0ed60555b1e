// Command webhook registers the bot's webhook with Telegram and prints the
// resulting webhook info.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dispatchbot/config"
	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/telegram"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-webhook", cfg.LoggerLevel)

	url := flag.String("url", cfg.WebhookURL, "public webhook URL")
	drop := flag.Bool("drop-pending", false, "drop updates queued while the webhook was unset")
	infoOnly := flag.Bool("info", false, "only print the current webhook info")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gw, err := telegram.NewClient(cfg.TelegramBotToken, log)
	if err != nil {
		log.Error("Failed to initialize telegram bot", logger.Error(err))
		os.Exit(1)
	}

	if !*infoOnly {
		if *url == "" {
			log.Error("webhook url is empty, set WEBHOOK_URL or pass -url")
			os.Exit(1)
		}
		err := gw.SetWebhook(ctx, telegram.WebhookConfig{
			URL:            *url,
			SecretToken:    cfg.WebhookSecret,
			MaxConnections: 40,
			AllowedUpdates: []string{"message", "callback_query"},
			DropPending:    *drop,
		})
		if err != nil {
			log.Error("Failed to set webhook", logger.Error(err))
			os.Exit(1)
		}
		log.Info("webhook set", logger.String("url", *url))
	}

	info, err := gw.WebhookInfo(ctx)
	if err != nil {
		log.Error("Failed to get webhook info", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("URL:              %s\n", info.URL)
	fmt.Printf("Pending updates:  %d\n", info.PendingUpdates)
	fmt.Printf("Max connections:  %d\n", info.MaxConnections)
	fmt.Printf("Allowed updates:  %s\n", strings.Join(info.AllowedUpdates, ", "))
	if info.LastErrorMessage != "" {
		fmt.Printf("Last error:       %s (%s)\n", info.LastErrorMessage, time.Unix(info.LastErrorDate, 0).Format(time.RFC3339))
	}
}
