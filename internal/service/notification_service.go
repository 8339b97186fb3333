package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/notify"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	sessionRepo      repository.ParkingSessionRepository
	deviceRepo       repository.DeviceRepository
	dispatcher       notify.Dispatcher
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	sessionRepo repository.ParkingSessionRepository,
	deviceRepo repository.DeviceRepository,
	dispatcher notify.Dispatcher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		sessionRepo:      sessionRepo,
		deviceRepo:       deviceRepo,
		dispatcher:       dispatcher,
		logger:           logger,
	}
}

// NotifySightingAtLot fans a sighting out to every device currently parked at
// the lot, excluding the reporter. Each recipient gets a stored notification;
// live push on top of that is best effort. Returns how many recipients were
// notified and how many were attempted.
func (s *NotificationService) NotifySightingAtLot(ctx context.Context, sighting *domain.Sighting, lot *domain.ParkingLot) (int, int, error) {
	sessions, err := s.sessionRepo.FindActiveByLot(ctx, lot.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing parked devices: %w", err)
	}

	attempted := 0
	notified := 0
	for _, session := range sessions {
		if session.DeviceID == sighting.ReporterDeviceID {
			continue
		}
		attempted++

		n := &domain.Notification{
			DeviceID:   session.DeviceID,
			Type:       domain.NotificationSightingAlert,
			Title:      "TAPS spotted!",
			Message:    fmt.Sprintf("TAPS was just spotted at %s. You checked in here - move your car or pay up!", lot.Name),
			LotID:      null.IntFrom(int64(lot.ID)),
			SightingID: null.IntFrom(int64(sighting.ID)),
		}
		if _, createErr := s.notificationRepo.Create(ctx, n); createErr != nil {
			// One failed recipient must not sink the rest of the fan-out.
			s.logger.Error("storing sighting notification failed",
				zap.Int("device_id", session.DeviceID),
				zap.Error(createErr))
			continue
		}
		notified++

		s.push(ctx, session.DeviceID, n)
	}

	s.logger.Info("sighting fan-out complete",
		zap.Int("sighting_id", sighting.ID),
		zap.Int("lot_id", lot.ID),
		zap.Int("notified", notified),
		zap.Int("attempted", attempted))
	return notified, attempted, nil
}

// SendCheckoutReminder stores and pushes a reminder for a session that has
// been open past the reminder threshold.
func (s *NotificationService) SendCheckoutReminder(ctx context.Context, session *domain.ParkingSession, lot *domain.ParkingLot) error {
	n := &domain.Notification{
		DeviceID: session.DeviceID,
		Type:     domain.NotificationCheckoutReminder,
		Title:    "Still parked?",
		Message:  fmt.Sprintf("You checked in at %s over 3 hours ago. Still parked there? Check out if you've left.", lot.Name),
		LotID:    null.IntFrom(int64(lot.ID)),
	}
	if _, err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("storing checkout reminder: %w", err)
	}

	s.push(ctx, session.DeviceID, n)
	return nil
}

// Unread returns the device's unread notifications, newest first.
func (s *NotificationService) Unread(ctx context.Context, device *domain.Device, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.notificationRepo.FindUnreadByDevice(ctx, device.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unread notifications: %w", err)
	}
	return notifications, nil
}

// List returns a page of the device's notifications with total and unread
// counts recomputed from storage.
func (s *NotificationService) List(ctx context.Context, device *domain.Device, limit, offset int) (*domain.NotificationListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.notificationRepo.FindByDevice(ctx, device.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	total, unread, err := s.notificationRepo.CountByDevice(ctx, device.ID)
	if err != nil {
		return nil, fmt.Errorf("counting notifications: %w", err)
	}

	return &domain.NotificationListDTO{
		Notifications: notifications,
		UnreadCount:   unread,
		TotalCount:    total,
	}, nil
}

// MarkRead acknowledges the device's own notifications and returns how many
// rows changed. IDs belonging to other devices are silently skipped.
func (s *NotificationService) MarkRead(ctx context.Context, device *domain.Device, ids []int) (int, error) {
	marked, err := s.notificationRepo.MarkRead(ctx, device.ID, ids, domain.Now())
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return marked, nil
}

// push delivers the stored notification over a live channel when the device
// has one. Failure here is expected (most devices poll) and only logged.
func (s *NotificationService) push(ctx context.Context, deviceID int, n *domain.Notification) {
	device, err := s.deviceRepo.FindByID(ctx, deviceID)
	if err != nil {
		s.logger.Warn("loading device for push failed", zap.Int("device_id", deviceID), zap.Error(err))
		return
	}
	if err := s.dispatcher.Deliver(ctx, device, n); err != nil && !errors.Is(err, notify.ErrNotConnected) {
		s.logger.Warn("push delivery failed",
			zap.String("device_uid", device.DeviceUID),
			zap.Error(err))
	}
}
