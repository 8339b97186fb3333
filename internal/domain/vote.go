package domain

import "time"

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Valid reports whether v is one of the two known vote types.
func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Vote is a device's judgement on a sighting. The database enforces at most
// one vote per (sighting, device).
type Vote struct {
	ID         int       `json:"id"`
	DeviceID   int       `json:"device_id"`
	SightingID int       `json:"sighting_id"`
	VoteType   VoteType  `json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VoteOutcome describes what a vote request did.
type VoteOutcome string

const (
	VoteApplied  VoteOutcome = "applied"  // no prior vote, one created
	VoteRemoved  VoteOutcome = "removed"  // same type again, vote deleted
	VoteReplaced VoteOutcome = "replaced" // opposite type, vote overwritten
)

type CastVoteDTO struct {
	VoteType VoteType `json:"vote_type" binding:"required"`
}

type VoteResultDTO struct {
	Success  bool        `json:"success"`
	Action   VoteOutcome `json:"action"`
	VoteType *VoteType   `json:"vote_type"`
}
