package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

// ReminderService runs the periodic checkout-reminder scan. Sessions open
// longer than the threshold get exactly one reminder; the reminder_sent claim
// in storage makes overlapping scans safe.
type ReminderService struct {
	sessionRepo   repository.ParkingSessionRepository
	lotRepo       repository.ParkingLotRepository
	notifications *NotificationService
	after         time.Duration
	logger        *zap.Logger
}

func NewReminderService(
	sessionRepo repository.ParkingSessionRepository,
	lotRepo repository.ParkingLotRepository,
	notifications *NotificationService,
	after time.Duration,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		sessionRepo:   sessionRepo,
		lotRepo:       lotRepo,
		notifications: notifications,
		after:         after,
		logger:        logger,
	}
}

// ProcessPending runs one scan and returns how many reminders were sent.
func (s *ReminderService) ProcessPending(ctx context.Context) (int, error) {
	cutoff := domain.Now().Add(-s.after)
	due, err := s.sessionRepo.FindReminderDue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("finding due sessions: %w", err)
	}

	sent := 0
	for _, session := range due {
		claimed, err := s.sessionRepo.ClaimReminder(ctx, session.ID)
		if err != nil {
			s.logger.Error("claiming reminder failed", zap.Int("session_id", session.ID), zap.Error(err))
			continue
		}
		if !claimed {
			// Another scan got here first.
			continue
		}

		lot, err := s.lotRepo.FindByID(ctx, session.LotID)
		if err != nil {
			s.logger.Error("loading lot for reminder failed",
				zap.Int("session_id", session.ID),
				zap.Int("lot_id", session.LotID),
				zap.Error(err))
			continue
		}
		if err := s.notifications.SendCheckoutReminder(ctx, &session, lot); err != nil {
			s.logger.Error("sending reminder failed", zap.Int("session_id", session.ID), zap.Error(err))
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info("checkout reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}

// Run loops ProcessPending on the given interval until ctx is cancelled.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("reminder scan started",
		zap.Duration("interval", interval),
		zap.Duration("after", s.after))

	for {
		select {
		case <-ticker.C:
			if _, err := s.ProcessPending(ctx); err != nil {
				s.logger.Error("reminder scan failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("reminder scan stopped")
			return
		}
	}
}
