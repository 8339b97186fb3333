package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/calendar"
	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

// Factor weights. The composite divides by their sum, so they need not add up
// to one.
const (
	weightTimeOfDay        = 0.25
	weightDayOfWeek        = 0.20
	weightHistorical       = 0.20
	weightRecentSightings  = 0.20
	weightAcademicCalendar = 0.15
	weightWeather          = 0.10

	historicalWindow = 90 * 24 * time.Hour
	neutralFactor    = 0.5
)

// WeatherProvider supplies an enforcement-likelihood factor from current
// conditions. Optional; a nil provider leaves the weather factor neutral.
type WeatherProvider interface {
	Factor(ctx context.Context, lot *domain.ParkingLot, at time.Time) (float64, error)
}

type PredictionService struct {
	sightingRepo repository.SightingRepository
	lotRepo      repository.ParkingLotRepository
	weather      WeatherProvider
	logger       *zap.Logger
}

func NewPredictionService(
	sightingRepo repository.SightingRepository,
	lotRepo repository.ParkingLotRepository,
	weather WeatherProvider,
	logger *zap.Logger,
) *PredictionService {
	return &PredictionService{
		sightingRepo: sightingRepo,
		lotRepo:      lotRepo,
		weather:      weather,
		logger:       logger,
	}
}

// Predict estimates the probability of enforcement presence at the lot at the
// given time. A zero time means now.
func (s *PredictionService) Predict(ctx context.Context, lotID int, at time.Time) (*domain.Prediction, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up lot: %w", err)
	}

	if at.IsZero() {
		at = domain.Now()
	}
	at = at.UTC()

	historicalFactor, historicalCount, err := s.historicalFactor(ctx, lot.ID, at)
	if err != nil {
		return nil, err
	}
	recentFactor, recentCount, err := s.recentSightingsFactor(ctx, lot.ID, at)
	if err != nil {
		return nil, err
	}

	factors := domain.PredictionFactors{
		TimeOfDay:        round3(timeOfDayFactor(at)),
		DayOfWeek:        round3(dayOfWeekFactor(at)),
		Historical:       round3(historicalFactor),
		RecentSightings:  round3(recentFactor),
		AcademicCalendar: round3(calendar.Intensity(at)),
	}

	weatherFactor := neutralFactor
	if s.weather != nil {
		wf, weatherErr := s.weather.Factor(ctx, lot, at)
		if weatherErr != nil {
			// Degrade to neutral rather than failing the prediction.
			s.logger.Warn("weather provider failed", zap.Int("lot_id", lot.ID), zap.Error(weatherErr))
		} else {
			weatherFactor = clamp01(wf)
			rounded := round3(weatherFactor)
			factors.Weather = &rounded
		}
	}

	weightedSum := factors.TimeOfDay*weightTimeOfDay +
		factors.DayOfWeek*weightDayOfWeek +
		factors.Historical*weightHistorical +
		factors.RecentSightings*weightRecentSightings +
		factors.AcademicCalendar*weightAcademicCalendar +
		weatherFactor*weightWeather
	totalWeight := weightTimeOfDay + weightDayOfWeek + weightHistorical +
		weightRecentSightings + weightAcademicCalendar + weightWeather

	probability := clamp01(weightedSum / totalWeight)

	return &domain.Prediction{
		LotID:        lot.ID,
		LotName:      lot.Name,
		LotCode:      lot.Code,
		Probability:  round3(probability),
		RiskLevel:    domain.RiskLevelFor(probability),
		PredictedFor: at,
		Factors:      factors,
		Confidence:   round3(confidence(historicalCount, recentCount)),
	}, nil
}

// PredictAll runs the prediction for every active lot.
func (s *PredictionService) PredictAll(ctx context.Context, at time.Time) ([]domain.Prediction, error) {
	lots, err := s.lotRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}

	predictions := make([]domain.Prediction, 0, len(lots))
	for _, lot := range lots {
		p, err := s.Predict(ctx, lot.ID, at)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *p)
	}
	return predictions, nil
}

// timeOfDayFactor models the enforcement day: nothing overnight, a morning
// ramp, a steady daytime peak with a lunch dip, and an evening wind-down.
func timeOfDayFactor(at time.Time) float64 {
	hour := at.Hour()
	switch {
	case hour < 6 || hour >= 22:
		return 0.05
	case hour < 8:
		return 0.2 + float64(hour-6)*0.15
	case hour < 17:
		if hour == 12 {
			return 0.7
		}
		return 0.85
	default:
		return 0.6 - float64(hour-17)*0.11
	}
}

func dayOfWeekFactor(at time.Time) float64 {
	switch at.Weekday() {
	case time.Monday:
		return 0.85
	case time.Tuesday:
		return 0.90
	case time.Wednesday:
		return 0.85
	case time.Thursday:
		return 0.80
	case time.Friday:
		return 0.70
	case time.Saturday:
		return 0.15
	default:
		return 0.10
	}
}

// historicalFactor normalizes the lot's same-weekday sighting count over the
// past 90 days against the busiest lot's count, so a quiet campus does not
// read as uniformly risky. Returns the factor and the lot's raw 90-day count
// for the confidence calculation.
func (s *PredictionService) historicalFactor(ctx context.Context, lotID int, at time.Time) (float64, int, error) {
	since := at.Add(-historicalWindow)

	count, err := s.sightingRepo.CountByLotWeekdaySince(ctx, lotID, at.Weekday(), since)
	if err != nil {
		return 0, 0, fmt.Errorf("counting historical sightings: %w", err)
	}
	busiest, err := s.sightingRepo.BusiestLotWeekdayCountSince(ctx, at.Weekday(), since)
	if err != nil {
		return 0, 0, fmt.Errorf("finding busiest lot count: %w", err)
	}

	total, err := s.sightingRepo.CountByLotSince(ctx, lotID, since)
	if err != nil {
		return 0, 0, fmt.Errorf("counting 90-day sightings: %w", err)
	}

	if busiest == 0 {
		return 0.3, total, nil
	}
	factor := 0.3 + 0.65*(float64(count)/float64(busiest))
	return factor, total, nil
}

// recentSightingsFactor reads the last day of activity: a sighting within two
// hours means enforcement is likely still around. Returns the factor and the
// 24-hour count for the confidence calculation.
func (s *PredictionService) recentSightingsFactor(ctx context.Context, lotID int, at time.Time) (float64, int, error) {
	veryRecent, err := s.sightingRepo.CountByLotSince(ctx, lotID, at.Add(-2*time.Hour))
	if err != nil {
		return 0, 0, fmt.Errorf("counting very recent sightings: %w", err)
	}
	recent, err := s.sightingRepo.CountByLotSince(ctx, lotID, at.Add(-24*time.Hour))
	if err != nil {
		return 0, 0, fmt.Errorf("counting recent sightings: %w", err)
	}

	if veryRecent > 0 {
		return 0.95, recent, nil
	}
	if recent == 0 {
		return 0.4, 0, nil
	}
	return math.Min(0.5+float64(recent)*0.1, 0.85), recent, nil
}

// confidence grows with available data and never reaches certainty: a lot
// with no history reports its prediction at the 0.4 floor.
func confidence(historicalCount, recentCount int) float64 {
	base := 0.4
	historicalContrib := math.Min(float64(historicalCount)*0.02, 0.3)
	recentContrib := math.Min(float64(recentCount)*0.05, 0.2)
	return math.Min(base+historicalContrib+recentContrib, 0.95)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
