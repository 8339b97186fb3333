package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// FeedSighting is one feed entry: a sighting merged with its vote tally and
// the viewing device's own vote.
type FeedSighting struct {
	ID         int         `json:"id"`
	LotID      int         `json:"lot_id"`
	LotName    string      `json:"lot_name"`
	LotCode    string      `json:"lot_code"`
	ReportedAt time.Time   `json:"reported_at"`
	Notes      null.String `json:"notes"`
	Upvotes    int         `json:"upvotes"`
	Downvotes  int         `json:"downvotes"`
	NetScore   int         `json:"net_score"`
	UserVote   *VoteType   `json:"user_vote"`
	MinutesAgo int         `json:"minutes_ago"`
}

// LotFeed is the time-windowed feed for one lot, newest first unless the
// caller asked for reliability ranking.
type LotFeed struct {
	LotID          int            `json:"lot_id"`
	LotName        string         `json:"lot_name"`
	LotCode        string         `json:"lot_code"`
	Sightings      []FeedSighting `json:"sightings"`
	TotalSightings int            `json:"total_sightings"`
}

// AllFeeds groups per-lot feeds for every active lot.
type AllFeeds struct {
	Feeds          []LotFeed `json:"feeds"`
	TotalSightings int       `json:"total_sightings"`
}
