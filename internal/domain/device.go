package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Device is a registered client device. We store the minimum needed to
// authenticate it and deliver notifications: the client-generated UID, the
// email-verification flag (the address itself is never persisted), and an
// optional push token.
type Device struct {
	ID            int         `json:"id"`
	DeviceUID     string      `json:"device_id"`
	EmailVerified bool        `json:"email_verified"`
	PushToken     null.String `json:"-"`
	PushEnabled   bool        `json:"push_enabled"`

	// Pending email-verification challenge. Only the bcrypt hash of the
	// emailed code is stored.
	VerificationCodeHash null.String `json:"-"`
	VerificationExpires  null.Time   `json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type RegisterDeviceDTO struct {
	DeviceID  string `json:"device_id" binding:"required"`
	PushToken string `json:"push_token,omitempty"`
}

type AuthResponseDTO struct {
	Token  string  `json:"token"`
	Device *Device `json:"device"`
}

type RequestVerificationDTO struct {
	Email string `json:"email" binding:"required"`
}

type ConfirmVerificationDTO struct {
	Code string `json:"code" binding:"required"`
}
