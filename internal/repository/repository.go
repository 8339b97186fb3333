package repository

import (
	"context"
	"errors"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrNoActiveSession = errors.New("no active parking session for this device")

type DeviceRepository interface {
	GetOrCreate(ctx context.Context, deviceUID string, pushToken null.String) (*domain.Device, error)
	FindByUID(ctx context.Context, deviceUID string) (*domain.Device, error)
	FindByID(ctx context.Context, id int) (*domain.Device, error)
	// SetVerificationChallenge stores the bcrypt hash of an emailed code and
	// its expiry on the device row.
	SetVerificationChallenge(ctx context.Context, id int, codeHash string, expires time.Time) error
	MarkEmailVerified(ctx context.Context, id int) error
	TouchLastSeen(ctx context.Context, id int, at time.Time) error
}

type ParkingLotRepository interface {
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindByCode(ctx context.Context, code string) (*domain.ParkingLot, error)
	FindAllActive(ctx context.Context) ([]domain.ParkingLot, error)
}

type ParkingSessionRepository interface {
	// Open inserts a new active session. Returns ErrDuplicateEntry if the
	// device already has an active session (partial unique index on
	// device_id WHERE checked_out_at IS NULL).
	Open(ctx context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error)
	// SwitchLot closes the device's active session and opens a new one at
	// lotID in a single transaction, both stamped with at.
	SwitchLot(ctx context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error)
	// CloseActive sets checked_out_at on the device's active session.
	// Returns ErrNoActiveSession if there is none.
	CloseActive(ctx context.Context, deviceID int, at time.Time) (*domain.ParkingSession, error)
	FindActiveByDevice(ctx context.Context, deviceID int) (*domain.ParkingSession, error)
	FindActiveByLot(ctx context.Context, lotID int) ([]domain.ParkingSession, error)
	CountActiveByLot(ctx context.Context, lotID int) (int, error)
	FindByDevice(ctx context.Context, deviceID int, limit int) ([]domain.ParkingSession, error)
	// FindReminderDue returns active sessions checked in at or before cutoff
	// whose reminder has not been sent.
	FindReminderDue(ctx context.Context, cutoff time.Time) ([]domain.ParkingSession, error)
	// ClaimReminder flips reminder_sent to true and reports whether this call
	// won the claim. The flag is the idempotence gate for the reminder scan.
	ClaimReminder(ctx context.Context, sessionID int) (bool, error)
}

type SightingRepository interface {
	Create(ctx context.Context, sighting *domain.Sighting) (*domain.Sighting, error)
	FindByID(ctx context.Context, id int) (*domain.Sighting, error)
	// FindSince returns sightings reported at or after cutoff, newest first.
	// lotID filters to one lot when non-nil.
	FindSince(ctx context.Context, lotID *int, cutoff time.Time, limit int) ([]domain.Sighting, error)
	FindLatestByLot(ctx context.Context, lotID int) (*domain.Sighting, error)
	ExistsByReporterSince(ctx context.Context, deviceID, lotID int, since time.Time) (bool, error)
	CountByLotSince(ctx context.Context, lotID int, since time.Time) (int, error)
	// CountByLotWeekdaySince counts sightings at the lot since the cutoff
	// that fall on the given weekday (0 = Sunday, matching time.Weekday).
	CountByLotWeekdaySince(ctx context.Context, lotID int, weekday time.Weekday, since time.Time) (int, error)
	// BusiestLotWeekdayCountSince returns the highest per-lot sighting count
	// for the weekday/window, used to normalize the historical factor.
	BusiestLotWeekdayCountSince(ctx context.Context, weekday time.Weekday, since time.Time) (int, error)
}

type VoteRepository interface {
	// Create returns ErrDuplicateEntry when the (sighting, device) pair
	// already has a vote; the unique constraint is the race guard.
	Create(ctx context.Context, vote *domain.Vote) (*domain.Vote, error)
	FindBySightingAndDevice(ctx context.Context, sightingID, deviceID int) (*domain.Vote, error)
	UpdateType(ctx context.Context, id int, voteType domain.VoteType, at time.Time) error
	Delete(ctx context.Context, id int) error
	CountBySighting(ctx context.Context, sightingID int) (upvotes, downvotes int, err error)
	// FindTypesForDevice returns the device's vote per sighting for the given
	// sighting ids.
	FindTypesForDevice(ctx context.Context, sightingIDs []int, deviceID int) (map[int]domain.VoteType, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	FindUnreadByDevice(ctx context.Context, deviceID, limit int) ([]domain.Notification, error)
	FindByDevice(ctx context.Context, deviceID, limit, offset int) ([]domain.Notification, error)
	// CountByDevice recomputes totals from rows; unread state is never cached.
	CountByDevice(ctx context.Context, deviceID int) (total, unread int, err error)
	// MarkRead stamps read_at on the device's own unread notifications among
	// ids and returns how many rows changed.
	MarkRead(ctx context.Context, deviceID int, ids []int, at time.Time) (int, error)
}
