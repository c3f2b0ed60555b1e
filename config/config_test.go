package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, 30*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 7, cfg.ReminderMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.WaybillWaitTTL)
	assert.Equal(t, time.Second, cfg.AttachmentDelay)
	assert.Equal(t, "Europe/Moscow", cfg.GroupTimezone)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("GROUP_CHAT_ID", "-1001234567890")
	t.Setenv("REMINDER_INTERVAL_MIN", "10")
	t.Setenv("WAYBILL_WAIT_TTL_MIN", "2")
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, 9090, cfg.AppPort)
	assert.Equal(t, int64(-1001234567890), cfg.GroupChatID)
	assert.Equal(t, 10*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 2*time.Minute, cfg.WaybillWaitTTL)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
}
