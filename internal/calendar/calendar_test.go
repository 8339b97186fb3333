package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 12, 0, 0, 0, time.UTC)
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want Period
	}{
		{"fall instruction", date(time.October, 15), PeriodQuarter},
		{"winter instruction", date(time.February, 3), PeriodQuarter},
		{"spring instruction", date(time.April, 20), PeriodQuarter},
		{"fall finals", date(time.December, 10), PeriodFinals},
		{"winter finals", date(time.March, 18), PeriodFinals},
		{"spring finals", date(time.June, 10), PeriodFinals},
		{"first day of spring finals", date(time.June, 7), PeriodFinals},
		{"last day of spring finals", date(time.June, 13), PeriodFinals},
		{"summer", date(time.July, 15), PeriodBreak},
		{"winter break", date(time.December, 25), PeriodBreak},
		{"spring break gap", date(time.March, 25), PeriodBreak},
		{"day after spring quarter ends", date(time.June, 14), PeriodBreak},
		{"day before fall quarter starts", date(time.September, 24), PeriodBreak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodFor(tt.t))
		})
	}
}

func TestIntensity(t *testing.T) {
	assert.Equal(t, 0.95, Intensity(date(time.December, 10)))
	assert.Equal(t, 0.75, Intensity(date(time.October, 15)))
	assert.Equal(t, 0.35, Intensity(date(time.July, 15)))
}
