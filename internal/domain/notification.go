package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type NotificationType string

const (
	NotificationSightingAlert    NotificationType = "taps_spotted"
	NotificationCheckoutReminder NotificationType = "checkout_reminder"
)

// Notification is a stored alert for a device. Rows are written by the
// fan-out engine and the reminder scan, mutated only to set ReadAt, and kept
// so unread counts can always be recomputed from storage.
type Notification struct {
	ID         int              `json:"id"`
	DeviceID   int              `json:"device_id"`
	Type       NotificationType `json:"notification_type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	LotID      null.Int         `json:"lot_id"`
	SightingID null.Int         `json:"sighting_id"`
	CreatedAt  time.Time        `json:"created_at"`
	ReadAt     null.Time        `json:"read_at"`
}

// IsRead reports whether the notification has been acknowledged.
func (n *Notification) IsRead() bool {
	return n.ReadAt.Valid
}

type NotificationListDTO struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	TotalCount    int            `json:"total_count"`
}

type MarkReadDTO struct {
	IDs []int `json:"notification_ids" binding:"required"`
}
