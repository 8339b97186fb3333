package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Sighting is a community report of enforcement presence at a lot. Immutable
// once created.
type Sighting struct {
	ID               int         `json:"id"`
	LotID            int         `json:"lot_id"`
	ReporterDeviceID int         `json:"-"`
	ReportedAt       time.Time   `json:"reported_at"`
	Notes            null.String `json:"notes"`

	LotName string `json:"lot_name,omitempty"`
	LotCode string `json:"lot_code,omitempty"`
}

type ReportSightingDTO struct {
	LotID int    `json:"lot_id" binding:"required"`
	Notes string `json:"notes,omitempty"`
}

// SightingReport is the report-sighting response: the persisted sighting plus
// fan-out feedback ("N users notified"). Attempted counts recipients we tried
// to notify; a gap between the two indicates partial delivery failure.
type SightingReport struct {
	Sighting
	UsersNotified  int `json:"users_notified"`
	UsersAttempted int `json:"users_attempted"`
}
