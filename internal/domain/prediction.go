package domain

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevelFor bands a composite probability into a risk level.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability < 0.33:
		return RiskLow
	case probability < 0.66:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// PredictionFactors holds the independently normalized signals, each in
// [0, 1], that feed the composite probability. Weather is nil when no weather
// provider is configured; it is treated as neutral (0.5) in the composite.
type PredictionFactors struct {
	TimeOfDay        float64  `json:"time_of_day_factor"`
	DayOfWeek        float64  `json:"day_of_week_factor"`
	Historical       float64  `json:"historical_factor"`
	RecentSightings  float64  `json:"recent_sightings_factor"`
	AcademicCalendar float64  `json:"academic_calendar_factor"`
	Weather          *float64 `json:"weather_factor"`
}

// Prediction is the enforcement-presence estimate for a lot at a point in
// time. Probability and confidence are reported separately: a lot with no
// history gets a low confidence, not a fabricated certainty.
type Prediction struct {
	LotID        int               `json:"lot_id"`
	LotName      string            `json:"lot_name"`
	LotCode      string            `json:"lot_code"`
	Probability  float64           `json:"probability"`
	RiskLevel    RiskLevel         `json:"risk_level"`
	PredictedFor time.Time         `json:"predicted_for"`
	Factors      PredictionFactors `json:"factors"`
	Confidence   float64           `json:"confidence"`
}
