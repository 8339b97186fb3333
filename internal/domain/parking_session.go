package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingSession is a device's declared presence interval at a lot. A session
// is active while CheckedOutAt is null; the database enforces at most one
// active session per device.
type ParkingSession struct {
	ID           int       `json:"id"`
	DeviceID     int       `json:"device_id"`
	LotID        int       `json:"lot_id"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	CheckedOutAt null.Time `json:"checked_out_at"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated for API responses, not mapped to a column.
	LotName string `json:"lot_name,omitempty"`
	LotCode string `json:"lot_code,omitempty"`
}

// IsActive reports whether the device is still parked.
func (s *ParkingSession) IsActive() bool {
	return !s.CheckedOutAt.Valid
}

type CheckInDTO struct {
	LotID int `json:"lot_id" binding:"required"`
}

type CheckOutResponseDTO struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	SessionID    int       `json:"session_id"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}
