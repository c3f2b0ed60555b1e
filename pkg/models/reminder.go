package models

import "time"

const (
	DefaultReminderInterval    = 30 * time.Minute
	DefaultReminderMaxAttempts = 7
)

type Reminder struct {
	ID         int64      `json:"id"`
	TripID     int64      `json:"trip_id"`
	DriverID   int64      `json:"driver_id"`
	Attempt    int        `json:"attempt"`
	LastSentAt *time.Time `json:"last_sent_at"`
	NextDueAt  time.Time  `json:"next_due_at"`
	Active     bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DueReminder is a reminder joined with what the sweep needs to render it.
type DueReminder struct {
	Reminder Reminder
	Trip     Trip
	Driver   Driver
}
