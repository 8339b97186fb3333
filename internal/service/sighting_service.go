package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type SightingService struct {
	sightingRepo  repository.SightingRepository
	lotRepo       repository.ParkingLotRepository
	notifications *NotificationService
	cooldown      time.Duration
	logger        *zap.Logger
}

func NewSightingService(
	sightingRepo repository.SightingRepository,
	lotRepo repository.ParkingLotRepository,
	notifications *NotificationService,
	cooldown time.Duration,
	logger *zap.Logger,
) *SightingService {
	return &SightingService{
		sightingRepo:  sightingRepo,
		lotRepo:       lotRepo,
		notifications: notifications,
		cooldown:      cooldown,
		logger:        logger,
	}
}

// Report records an enforcement sighting and fans it out to everyone parked
// at the lot. The sighting is persisted even if every delivery fails; the
// returned counts tell the reporter how many people were reached.
func (s *SightingService) Report(ctx context.Context, device *domain.Device, dto domain.ReportSightingDTO) (*domain.SightingReport, error) {
	lot, err := s.lotRepo.FindByID(ctx, dto.LotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up lot: %w", err)
	}
	if !lot.IsActive {
		return nil, ErrLotInactive
	}

	now := domain.Now()

	// Duplicate-report guard: one report per device per lot per window.
	recent, err := s.sightingRepo.ExistsByReporterSince(ctx, device.ID, lot.ID, now.Add(-s.cooldown))
	if err != nil {
		return nil, fmt.Errorf("checking recent reports: %w", err)
	}
	if recent {
		return nil, ErrReportRateLimited
	}

	sighting := &domain.Sighting{
		LotID:            lot.ID,
		ReporterDeviceID: device.ID,
		ReportedAt:       now,
		LotName:          lot.Name,
		LotCode:          lot.Code,
	}
	if dto.Notes != "" {
		sighting.Notes = null.StringFrom(dto.Notes)
	}

	if _, err := s.sightingRepo.Create(ctx, sighting); err != nil {
		return nil, fmt.Errorf("storing sighting: %w", err)
	}

	notified, attempted, err := s.notifications.NotifySightingAtLot(ctx, sighting, lot)
	if err != nil {
		// The report stands regardless of fan-out trouble.
		s.logger.Error("sighting fan-out failed", zap.Int("sighting_id", sighting.ID), zap.Error(err))
		notified, attempted = 0, 0
	}

	return &domain.SightingReport{
		Sighting:       *sighting,
		UsersNotified:  notified,
		UsersAttempted: attempted,
	}, nil
}

// Recent returns sightings inside the window, newest first. A nil lotID means
// all lots.
func (s *SightingService) Recent(ctx context.Context, lotID *int, window time.Duration, limit int) ([]domain.Sighting, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if lotID != nil {
		if _, err := s.lotRepo.FindByID(ctx, *lotID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, repository.ErrNotFound
			}
			return nil, fmt.Errorf("looking up lot: %w", err)
		}
	}

	sightings, err := s.sightingRepo.FindSince(ctx, lotID, domain.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("listing sightings: %w", err)
	}
	return sightings, nil
}

// Latest returns the most recent sighting at the lot, or nil when there has
// never been one.
func (s *SightingService) Latest(ctx context.Context, lotID int) (*domain.Sighting, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up lot: %w", err)
	}

	sighting, err := s.sightingRepo.FindLatestByLot(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up latest sighting: %w", err)
	}
	return sighting, nil
}
