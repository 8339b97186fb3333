package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type SessionService struct {
	sessionRepo repository.ParkingSessionRepository
	lotRepo     repository.ParkingLotRepository
	logger      *zap.Logger
}

func NewSessionService(
	sessionRepo repository.ParkingSessionRepository,
	lotRepo repository.ParkingLotRepository,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		lotRepo:     lotRepo,
		logger:      logger,
	}
}

// CheckIn opens a parking session for the device at the given lot. A check-in
// while parked at a different lot closes the old session and opens the new one
// atomically; a check-in at the current lot is rejected.
func (s *SessionService) CheckIn(ctx context.Context, device *domain.Device, dto domain.CheckInDTO) (*domain.ParkingSession, error) {
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

	active, err := s.sessionRepo.FindActiveByDevice(ctx, device.ID)
	switch {
	case err == nil:
		if active.LotID == lot.ID {
			return nil, ErrAlreadyParked
		}
		s.logger.Info("switching lots",
			zap.String("device_uid", device.DeviceUID),
			zap.Int("from_lot", active.LotID),
			zap.Int("to_lot", lot.ID))
		session, switchErr := s.sessionRepo.SwitchLot(ctx, device.ID, lot.ID, now)
		if switchErr != nil {
			return nil, fmt.Errorf("switching lot: %w", switchErr)
		}
		session.LotName = lot.Name
		session.LotCode = lot.Code
		return session, nil

	case errors.Is(err, repository.ErrNoActiveSession):
		session, openErr := s.sessionRepo.Open(ctx, device.ID, lot.ID, now)
		if openErr != nil {
			// A concurrent check-in won the partial unique index.
			if errors.Is(openErr, repository.ErrDuplicateEntry) {
				return nil, ErrAlreadyParked
			}
			return nil, fmt.Errorf("opening session: %w", openErr)
		}
		session.LotName = lot.Name
		session.LotCode = lot.Code
		return session, nil

	default:
		return nil, fmt.Errorf("looking up active session: %w", err)
	}
}

// CheckOut closes the device's active session.
func (s *SessionService) CheckOut(ctx context.Context, device *domain.Device) (*domain.ParkingSession, error) {
	session, err := s.sessionRepo.CloseActive(ctx, device.ID, domain.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return nil, ErrNotParked
		}
		return nil, fmt.Errorf("closing session: %w", err)
	}
	s.hydrateLot(ctx, session)
	return session, nil
}

// Current returns the device's active session, or nil when it is not parked.
func (s *SessionService) Current(ctx context.Context, device *domain.Device) (*domain.ParkingSession, error) {
	session, err := s.sessionRepo.FindActiveByDevice(ctx, device.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up active session: %w", err)
	}
	s.hydrateLot(ctx, session)
	return session, nil
}

// History returns the device's most recent sessions, newest first.
func (s *SessionService) History(ctx context.Context, device *domain.Device, limit int) ([]domain.ParkingSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sessions, err := s.sessionRepo.FindByDevice(ctx, device.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	for i := range sessions {
		s.hydrateLot(ctx, &sessions[i])
	}
	return sessions, nil
}

func (s *SessionService) hydrateLot(ctx context.Context, session *domain.ParkingSession) {
	lot, err := s.lotRepo.FindByID(ctx, session.LotID)
	if err != nil {
		return
	}
	session.LotName = lot.Name
	session.LotCode = lot.Code
}
