package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the package clock, for tests. Passing nil restores the real
// clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now is the single source of time for the domain. Always UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
