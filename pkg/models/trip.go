package models

import (
	"path"
	"strings"
	"time"
)

type TripStatus string

const (
	TripStatusNew        TripStatus = "new"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
	TripStatusPostponed  TripStatus = "postponed"
	TripStatusRejected   TripStatus = "rejected"
	TripStatusRepair     TripStatus = "repair"
)

var tripStatusLabels = map[TripStatus]string{
	TripStatusNew:        "Новая",
	TripStatusInProgress: "В работе",
	TripStatusCompleted:  "Выполнена",
	TripStatusCancelled:  "Отменена",
	TripStatusPostponed:  "Перенесена",
	TripStatusRejected:   "Отклонена",
	TripStatusRepair:     "Ремонт",
}

var tripStatusBadges = map[TripStatus]string{
	TripStatusNew:        "🆕",
	TripStatusInProgress: "🟡",
	TripStatusCompleted:  "🟢",
	TripStatusCancelled:  "🔴",
	TripStatusPostponed:  "⚪",
	TripStatusRejected:   "⛔",
	TripStatusRepair:     "🔧",
}

func (s TripStatus) Valid() bool {
	_, ok := tripStatusLabels[s]
	return ok
}

func (s TripStatus) Label() string {
	if l, ok := tripStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s TripStatus) Badge() string {
	if b, ok := tripStatusBadges[s]; ok {
		return b
	}
	return "❔"
}

// Attachment is a dispatcher-uploaded file sent to the driver along with the trip.
type Attachment struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Ext returns the lowercase extension without the dot.
func (a Attachment) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(a.Path)), ".")
}

func (a Attachment) IsImage() bool {
	switch a.Ext() {
	case "jpg", "jpeg", "png":
		return true
	}
	return false
}

type Trip struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Date        *time.Time `json:"date"`
	ClientName  string     `json:"client_name"`
	ClientPhone string     `json:"client_phone"`
	Address     string     `json:"address"`
	Comment     string     `json:"comment"`
	CarNumber   string     `json:"car_number"`
	Reason      string     `json:"reason"`
	Status      TripStatus `json:"status"`
	DriverID    *int64     `json:"driver_id"`

	DispatcherID    *int64 `json:"dispatcher_id"`
	DispatcherName  string `json:"dispatcher_name,omitempty"`
	DispatcherPhone string `json:"dispatcher_phone,omitempty"`

	Documents  []Attachment `json:"documents"`
	HasWaybill bool         `json:"has_waybill"`

	Notified      bool       `json:"notified"`
	NotifiedAt    *time.Time `json:"notified_at"`
	NotifiedCount int        `json:"notified_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// AssignedTo reports whether the trip is currently assigned to driverID.
func (t *Trip) AssignedTo(driverID int64) bool {
	return t.DriverID != nil && *t.DriverID == driverID
}

func (t *Trip) Clone() *Trip {
	c := *t
	if t.DriverID != nil {
		id := *t.DriverID
		c.DriverID = &id
	}
	c.Documents = append([]Attachment(nil), t.Documents...)
	return &c
}

// TripCounts backs the driver's main menu.
type TripCounts struct {
	Available int
	Active    int
	Total     int
}
