package service

import "errors"

var (
	ErrAlreadyParked      = errors.New("device already has an active session at this lot")
	ErrNotParked          = errors.New("device has no active parking session")
	ErrLotInactive        = errors.New("parking lot is not active")
	ErrReportRateLimited  = errors.New("a sighting for this lot was already reported by this device recently")
	ErrNotVerified        = errors.New("device email is not verified")
	ErrInvalidVote        = errors.New("vote type must be upvote or downvote")
	ErrInvalidEmail       = errors.New("email address is not acceptable")
	ErrNoPendingChallenge = errors.New("no pending verification challenge")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrCodeMismatch       = errors.New("verification code does not match")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)
