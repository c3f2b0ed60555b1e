package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	TelegramBotToken string
	WebhookURL       string
	WebhookSecret    string

	// Second bot that only posts into the dispatchers' group chat.
	NotificationBotToken string
	GroupChatID          int64
	GroupTimezone        string

	StoragePath   string
	PublicBaseURL string

	ReminderSweepInterval time.Duration
	ReminderInterval      time.Duration
	ReminderMaxAttempts   int
	WaybillWaitTTL        time.Duration
	AttachmentDelay       time.Duration
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "dispatchbot"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "dispatch"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", "localhost"))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TG_BOT_TOKEN", ""))
	cfg.WebhookURL = cast.ToString(getOrReturnDefault("WEBHOOK_URL", ""))
	cfg.WebhookSecret = cast.ToString(getOrReturnDefault("WEBHOOK_SECRET", ""))

	cfg.NotificationBotToken = cast.ToString(getOrReturnDefault("NOTIFICATION_BOT_TOKEN", ""))
	cfg.GroupChatID = cast.ToInt64(getOrReturnDefault("GROUP_CHAT_ID", 0))
	cfg.GroupTimezone = cast.ToString(getOrReturnDefault("GROUP_TIMEZONE", "Europe/Moscow"))

	cfg.StoragePath = cast.ToString(getOrReturnDefault("STORAGE_PATH", "./storage"))
	cfg.PublicBaseURL = cast.ToString(getOrReturnDefault("PUBLIC_BASE_URL", "http://localhost:8080/storage"))

	cfg.ReminderSweepInterval = time.Duration(cast.ToInt(getOrReturnDefault("REMINDER_SWEEP_INTERVAL_MIN", 5))) * time.Minute
	cfg.ReminderInterval = time.Duration(cast.ToInt(getOrReturnDefault("REMINDER_INTERVAL_MIN", 30))) * time.Minute
	cfg.ReminderMaxAttempts = cast.ToInt(getOrReturnDefault("REMINDER_MAX_ATTEMPTS", 7))
	cfg.WaybillWaitTTL = time.Duration(cast.ToInt(getOrReturnDefault("WAYBILL_WAIT_TTL_MIN", 5))) * time.Minute
	cfg.AttachmentDelay = time.Duration(cast.ToInt(getOrReturnDefault("ATTACHMENT_DELAY_MS", 1000))) * time.Millisecond

	return cfg
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
