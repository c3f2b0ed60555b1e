package models

import "time"

type Waybill struct {
	ID           int64     `json:"id"`
	TripID       int64     `json:"trip_id"`
	DriverID     int64     `json:"driver_id"`
	FilePath     string    `json:"file_path"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// PendingWaybill marks a chat as expected to send a waybill file next.
type PendingWaybill struct {
	ChatID    int64     `json:"chat_id"`
	TripID    int64     `json:"trip_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p PendingWaybill) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
