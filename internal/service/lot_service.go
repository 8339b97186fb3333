package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type LotService struct {
	lotRepo      repository.ParkingLotRepository
	sessionRepo  repository.ParkingSessionRepository
	sightingRepo repository.SightingRepository
}

func NewLotService(
	lotRepo repository.ParkingLotRepository,
	sessionRepo repository.ParkingSessionRepository,
	sightingRepo repository.SightingRepository,
) *LotService {
	return &LotService{
		lotRepo:      lotRepo,
		sessionRepo:  sessionRepo,
		sightingRepo: sightingRepo,
	}
}

// List returns every active lot with its live activity summary.
func (s *LotService) List(ctx context.Context) ([]domain.ParkingLotSummary, error) {
	lots, err := s.lotRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}

	summaries := make([]domain.ParkingLotSummary, 0, len(lots))
	for _, lot := range lots {
		summary, err := s.summarize(ctx, lot)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Get returns one lot with its live activity summary.
func (s *LotService) Get(ctx context.Context, id int) (*domain.ParkingLotSummary, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up lot: %w", err)
	}
	return s.summarize(ctx, *lot)
}

func (s *LotService) summarize(ctx context.Context, lot domain.ParkingLot) (*domain.ParkingLotSummary, error) {
	count, err := s.sessionRepo.CountActiveByLot(ctx, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("counting active sessions: %w", err)
	}

	summary := &domain.ParkingLotSummary{ParkingLot: lot, ActiveSessions: count}

	latest, err := s.sightingRepo.FindLatestByLot(ctx, lot.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up latest sighting: %w", err)
	}
	summary.LatestSighting = latest
	return summary, nil
}
