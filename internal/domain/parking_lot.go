package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingLot is a tracked parking structure. Lots are seeded by migration and
// read-only to the API; only the activation flag ever changes.
type ParkingLot struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Latitude  null.Float `json:"latitude"`
	Longitude null.Float `json:"longitude"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// ParkingLotSummary is the lot-list view: the lot plus live activity counts.
type ParkingLotSummary struct {
	ParkingLot
	ActiveSessions int       `json:"active_sessions"`
	LatestSighting *Sighting `json:"latest_sighting,omitempty"`
}
