package models

import "time"

type Driver struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Comment          string    `json:"comment"`
	TelegramUsername *string   `json:"telegram_username"`
	TelegramChatID   *int64    `json:"telegram_chat_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsRegistered reports whether the driver can receive bot messages.
func (d *Driver) IsRegistered() bool {
	return d.TelegramChatID != nil && *d.TelegramChatID != 0
}

func (d *Driver) ChatID() int64 {
	if d.TelegramChatID == nil {
		return 0
	}
	return *d.TelegramChatID
}

type Dispatcher struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
